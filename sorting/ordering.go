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
	"fmt"
	"strings"

	"github.com/EvieLachlanB/realm-core/store"
)

// Ordering is an ordered stack of sort/distinct stages, applied
// in sequence to progressively refine a view. The zero Ordering
// is empty and applies nothing.
//
// Orderings own their stages exclusively: appending clones the
// descriptor, and copying an Ordering (Clone) deep-copies every
// stage.
type Ordering struct {
	descriptors []Descriptor
}

// AppendSort adds a sort stage to the stack. Invalid stages are
// ignored. If the stack currently ends in a sort stage the new
// keys are folded into it with MergeWith, so consecutive sorts
// collapse into a single multi-key pass. A sort arriving after
// a distinct stage always starts a new stage.
// Passing a distinct descriptor is a caller bug and panics.
func (o *Ordering) AppendSort(d Descriptor) {
	if d.kind != KindSort {
		panic("sorting: AppendSort of a non-sort descriptor")
	}
	if !d.IsValid() {
		return
	}
	if n := len(o.descriptors); n > 0 && o.descriptors[n-1].kind == KindSort {
		o.descriptors[n-1].MergeWith(d)
		return
	}
	o.descriptors = append(o.descriptors, d.clone())
}

// AppendDistinct adds a distinct stage to the stack. Invalid
// stages are ignored. Distinct stages never fold: each one's
// equivalence classes depend on the rows surviving the stages
// before it. Passing a sort descriptor is a caller bug and
// panics.
func (o *Ordering) AppendDistinct(d Descriptor) {
	if d.kind != KindDistinct {
		panic("sorting: AppendDistinct of a non-distinct descriptor")
	}
	if !d.IsValid() {
		return
	}
	o.descriptors = append(o.descriptors, d.clone())
}

// Len returns the number of stages.
func (o *Ordering) Len() int { return len(o.descriptors) }

// IsEmpty reports whether the stack has no stages.
func (o *Ordering) IsEmpty() bool { return len(o.descriptors) == 0 }

// At returns the i-th stage. The returned pointer is valid for
// the lifetime of the Ordering. Out-of-range access is a caller
// bug and panics.
func (o *Ordering) At(i int) *Descriptor {
	if i < 0 || i >= len(o.descriptors) {
		panic(fmt.Sprintf("sorting: stage %d out of range [0,%d)", i, len(o.descriptors)))
	}
	return &o.descriptors[i]
}

// WillApplySort reports whether any stage is a sort stage.
func (o *Ordering) WillApplySort() bool {
	for i := range o.descriptors {
		if o.descriptors[i].kind == KindSort {
			return true
		}
	}
	return false
}

// WillApplyDistinct reports whether any stage is a distinct stage.
func (o *Ordering) WillApplyDistinct() bool {
	for i := range o.descriptors {
		if o.descriptors[i].kind == KindDistinct {
			return true
		}
	}
	return false
}

// Description concatenates the stage descriptions in stack
// order, separated by single spaces.
func (o *Ordering) Description(t *store.Table) string {
	var parts []string
	for i := range o.descriptors {
		parts = append(parts, o.descriptors[i].Description(t))
	}
	return strings.Join(parts, " ")
}

// Clone returns a deep copy of the stack.
func (o *Ordering) Clone() Ordering {
	if len(o.descriptors) == 0 {
		return Ordering{}
	}
	out := Ordering{descriptors: make([]Descriptor, len(o.descriptors))}
	for i := range o.descriptors {
		out.descriptors[i] = o.descriptors[i].clone()
	}
	return out
}

// Apply runs the stack over a view given as row keys and
// returns the reordered (and, with distinct stages, shrunken)
// view. Stages execute strictly in stack order; each stage gets
// a Sorter built fresh against the rows surviving the previous
// stage, with positions renumbered. The input slice is not
// modified.
func (o *Ordering) Apply(keys []store.RowKey) []store.RowKey {
	v := make(IndexPairs, len(keys))
	for i, k := range keys {
		v[i] = IndexPair{Key: k, Index: i}
	}
	cur := make([]store.RowKey, len(keys))
	copy(cur, keys)
	for i := range o.descriptors {
		d := &o.descriptors[i]
		if !d.IsValid() {
			continue
		}
		if i > 0 {
			// renumber against the surviving view
			cur = cur[:0]
			for j := range v {
				v[j].Index = j
				cur = append(cur, v[j].Key)
			}
		}
		s := d.Sorter(cur)
		var next *Descriptor
		if i+1 < len(o.descriptors) {
			next = &o.descriptors[i+1]
		}
		d.Execute(&v, &s, next)
	}
	out := make([]store.RowKey, len(v))
	for i := range v {
		out[i] = v[i].Key
	}
	return out
}
