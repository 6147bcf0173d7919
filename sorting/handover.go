// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package sorting

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/EvieLachlanB/realm-core/store"
)

// HandoverPatch is a table-independent record of an Ordering's
// shape: per stage, its kind, its column-key chains and (for
// sort stages) its directions. Row and column data bound to one
// table instance must never be dereferenced against another, so
// the patch is how an ordering crosses a snapshot or goroutine
// boundary: generate it on the owning side, rebind it on the
// receiving side.
//
// A patch is single-use: FromPatch consumes it, and a second
// consumption attempt returns ErrPatchConsumed. The patch
// itself carries no shared mutable state beyond the consume
// flag, so handing it to another goroutine needs no locking.
type HandoverPatch struct {
	stages   []patchStage
	consumed uint32
}

type patchStage struct {
	kind      Kind
	columns   [][]store.ColKey
	ascending []bool
}

// ErrPatchConsumed is returned by FromPatch when the patch has
// already been rebound once.
var ErrPatchConsumed = errors.New("sorting: handover patch already consumed")

// GeneratePatch detaches the stack's shape from its table
// instances. The originating Ordering is not modified and
// remains usable.
func GeneratePatch(o *Ordering) *HandoverPatch {
	p := &HandoverPatch{stages: make([]patchStage, len(o.descriptors))}
	for i := range o.descriptors {
		d := &o.descriptors[i]
		p.stages[i] = patchStage{
			kind:      d.kind,
			columns:   d.ExportColumnIndices(),
			ascending: d.ExportOrder(),
		}
	}
	return p
}

// FromPatch consumes p and reconstructs an equivalent Ordering
// bound to t (and, for link traversal, to t's database db).
//
// A recorded column that no longer resolves, because the schema
// changed between generation and consumption, is a reported
// error wrapping ErrUnresolvedColumn, not a panic: schema
// evolution across versions is expected. The patch counts as
// consumed even when rebinding fails.
func FromPatch(p *HandoverPatch, db *store.Database, t *store.Table) (*Ordering, error) {
	if !atomic.CompareAndSwapUint32(&p.consumed, 0, 1) {
		return nil, ErrPatchConsumed
	}
	out := new(Ordering)
	for i := range p.stages {
		st := &p.stages[i]
		var d Descriptor
		var err error
		switch st.kind {
		case KindSort:
			d, err = NewSort(db, t, st.columns, st.ascending)
		case KindDistinct:
			d, err = NewDistinct(db, t, st.columns)
		default:
			err = fmt.Errorf("unknown stage kind %d", int(st.kind))
		}
		if err != nil {
			return nil, fmt.Errorf("sorting: rebinding stage %d: %w", i, err)
		}
		// append directly: the patch already reflects any
		// folding done while the stack was assembled
		out.descriptors = append(out.descriptors, d)
	}
	return out, nil
}
