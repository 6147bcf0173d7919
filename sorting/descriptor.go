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
	"strings"

	"github.com/EvieLachlanB/realm-core/store"
)

// ColumnID is one resolved element of a column chain: a column
// on a concrete table instance.
type ColumnID struct {
	Table *store.Table
	Col   store.ColKey
}

// Kind distinguishes the two stage variants.
type Kind uint8

const (
	KindDistinct Kind = iota
	KindSort
)

func (k Kind) String() string {
	switch k {
	case KindDistinct:
		return "DISTINCT"
	case KindSort:
		return "SORT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrUnresolvedColumn wraps every chain-resolution failure, so
// callers rebinding a handover patch against an evolved schema
// can detect the condition with errors.Is.
var ErrUnresolvedColumn = errors.New("column chain cannot be resolved")

// Descriptor is one stage of an Ordering: a distinct stage or a
// sort stage over a set of column chains. The zero Descriptor
// is an invalid distinct stage. Descriptors are immutable after
// construction except for the explicit MergeWith mutation used
// while a query is being assembled.
type Descriptor struct {
	kind      Kind
	columns   [][]ColumnID
	ascending []bool // sort only; empty means all ascending
}

// resolveChains validates chains against t and resolves each
// element to a concrete (table, column) pair, following link
// columns through db. An empty chain list, or any empty chain,
// yields (nil, nil): the descriptor is invalid, not broken.
// A column that does not exist, an intermediate column that is
// not a link, or a missing target table is an error.
func resolveChains(db *store.Database, t *store.Table, chains [][]store.ColKey) ([][]ColumnID, error) {
	if len(chains) == 0 {
		return nil, nil
	}
	for _, chain := range chains {
		if len(chain) == 0 {
			return nil, nil
		}
	}
	out := make([][]ColumnID, len(chains))
	for i, chain := range chains {
		cur := t
		ids := make([]ColumnID, len(chain))
		for j, key := range chain {
			col, ok := cur.Schema().Column(key)
			if !ok {
				return nil, fmt.Errorf("%w: no column %d in table %q", ErrUnresolvedColumn, key, cur.Name())
			}
			ids[j] = ColumnID{Table: cur, Col: key}
			if j < len(chain)-1 {
				if col.Type != store.TypeLink {
					return nil, fmt.Errorf("%w: column %q in table %q is not a link column", ErrUnresolvedColumn, col.Name, cur.Name())
				}
				next, ok := db.Target(cur, key)
				if !ok {
					return nil, fmt.Errorf("%w: link target %q of column %q does not exist", ErrUnresolvedColumn, col.Target, col.Name)
				}
				cur = next
			} else if col.Type == store.TypeLink {
				return nil, fmt.Errorf("%w: cannot order on link column %q in table %q", ErrUnresolvedColumn, col.Name, cur.Name())
			}
		}
		out[i] = ids
	}
	return out, nil
}

// NewDistinct builds a distinct descriptor for the given column
// chains on t. Empty chain input marks the descriptor invalid
// rather than failing; see resolveChains for the error cases.
func NewDistinct(db *store.Database, t *store.Table, chains [][]store.ColKey) (Descriptor, error) {
	cols, err := resolveChains(db, t, chains)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{kind: KindDistinct, columns: cols}, nil
}

// NewSort builds a sort descriptor for the given column chains
// on t. ascending must either be empty (all chains ascending)
// or hold exactly one flag per chain; anything else is a caller
// bug and panics.
func NewSort(db *store.Database, t *store.Table, chains [][]store.ColKey, ascending []bool) (Descriptor, error) {
	if len(ascending) != 0 && len(ascending) != len(chains) {
		panic(fmt.Sprintf("sorting: %d ascending flags for %d column chains", len(ascending), len(chains)))
	}
	cols, err := resolveChains(db, t, chains)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{kind: KindSort, columns: cols}
	if cols != nil && len(ascending) != 0 {
		d.ascending = make([]bool, len(ascending))
		copy(d.ascending, ascending)
	}
	return d, nil
}

// IsValid reports whether the descriptor holds at least one
// column chain. Executing an invalid descriptor leaves the view
// unchanged.
func (d *Descriptor) IsValid() bool { return len(d.columns) != 0 }

// Kind returns the stage variant.
func (d *Descriptor) Kind() Kind { return d.kind }

// IsSort reports whether this is a sort stage.
func (d *Descriptor) IsSort() bool { return d.kind == KindSort }

// Table returns the table the descriptor's chains originate
// from, or nil for an invalid descriptor.
func (d *Descriptor) Table() *store.Table {
	if !d.IsValid() {
		return nil
	}
	return d.columns[0][0].Table
}

func (d *Descriptor) clone() Descriptor {
	out := Descriptor{kind: d.kind}
	if d.columns != nil {
		out.columns = make([][]ColumnID, len(d.columns))
		for i := range d.columns {
			out.columns[i] = make([]ColumnID, len(d.columns[i]))
			copy(out.columns[i], d.columns[i])
		}
	}
	if d.ascending != nil {
		out.ascending = make([]bool, len(d.ascending))
		copy(out.ascending, d.ascending)
	}
	return out
}

// normalizedAscending returns one flag per chain, expanding the
// "empty means all ascending" shorthand.
func (d *Descriptor) normalizedAscending() []bool {
	out := make([]bool, len(d.columns))
	for i := range out {
		if len(d.ascending) == len(d.columns) {
			out[i] = d.ascending[i]
		} else {
			out[i] = true
		}
	}
	return out
}

// MergeWith appends other's chains and directions to d,
// producing a single multi-key sort stage: d's keys order
// first, other's keys break ties. Both stages must be valid
// sort stages over the same table; anything else is a caller
// bug and panics.
func (d *Descriptor) MergeWith(other Descriptor) {
	if d.kind != KindSort || other.kind != KindSort {
		panic("sorting: MergeWith on a non-sort descriptor")
	}
	if !d.IsValid() || !other.IsValid() {
		panic("sorting: MergeWith on an invalid descriptor")
	}
	if d.Table() != other.Table() {
		panic(fmt.Sprintf("sorting: merging sort descriptors bound to different tables (%q vs %q)",
			d.Table().Name(), other.Table().Name()))
	}
	d.ascending = d.normalizedAscending()
	o := other.clone()
	d.columns = append(d.columns, o.columns...)
	d.ascending = append(d.ascending, other.normalizedAscending()...)
}

// ExportColumnIndices returns the raw column-key chains,
// detached from any table instance.
func (d *Descriptor) ExportColumnIndices() [][]store.ColKey {
	out := make([][]store.ColKey, len(d.columns))
	for i, chain := range d.columns {
		keys := make([]store.ColKey, len(chain))
		for j := range chain {
			keys[j] = chain[j].Col
		}
		out[i] = keys
	}
	return out
}

// ExportOrder returns one ascending flag per chain for a sort
// stage and nil for a distinct stage.
func (d *Descriptor) ExportOrder() []bool {
	if d.kind != KindSort || !d.IsValid() {
		return nil
	}
	return d.normalizedAscending()
}

// Description renders the stage in a deterministic textual
// form, e.g. "SORT(boss.name ASC, age DESC)" or "DISTINCT(name)".
// Column keys of the leading chain elements resolve to names
// through the supplied table; link hops resolve through the
// tables recorded in the chain. The output parses back with
// ParseDescription.
func (d *Descriptor) Description(t *store.Table) string {
	if !d.IsValid() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(d.kind.String())
	sb.WriteByte('(')
	asc := d.normalizedAscending()
	for i, chain := range d.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		for j, id := range chain {
			if j > 0 {
				sb.WriteByte('.')
			}
			if j == 0 && t != nil {
				sb.WriteString(t.ColumnName(id.Col))
			} else {
				sb.WriteString(id.Table.ColumnName(id.Col))
			}
		}
		if d.kind == KindSort {
			if asc[i] {
				sb.WriteString(" ASC")
			} else {
				sb.WriteString(" DESC")
			}
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
