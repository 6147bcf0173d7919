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
	"github.com/EvieLachlanB/realm-core/mixed"
	"github.com/EvieLachlanB/realm-core/store"
)

// IndexPair is one surviving row during stage execution: its
// row key and its position in the view the current Sorter was
// built against. Index indexes the Sorter's per-column side
// tables and is only meaningful for that one execution pass.
type IndexPair struct {
	Key   store.RowKey
	Index int

	cached    mixed.Value
	hasCached bool
}

// CachedValue returns the leading sort-key value stored by
// Sorter.CacheFirstColumn and reports whether one is present.
func (p IndexPair) CachedValue() (mixed.Value, bool) {
	return p.cached, p.hasCached
}

// IndexPairs is the working view a stage executes against.
type IndexPairs []IndexPair

// sortColumn is the per-chain state of a Sorter: the final
// column to read plus, for chains that traverse links, the
// pre-resolved target row key per position in view.
type sortColumn struct {
	table     *store.Table
	col       store.ColKey
	ascending bool

	// translated and isNull are populated only for chains of
	// length > 1; single-column chains read the row's own key.
	translated []store.RowKey
	isNull     []bool
}

// valueAt resolves the comparable value of p under this column,
// returning null for broken links and unset cells alike.
func (c *sortColumn) valueAt(p IndexPair) mixed.Value {
	key := p.Key
	if c.translated != nil {
		if c.isNull[p.Index] {
			return mixed.Null()
		}
		key = c.translated[p.Index]
	}
	return c.table.Get(key, c.col)
}

// Sorter compares rows of one view over one descriptor's column
// chains. A Sorter is built per execution pass, against the
// row-to-key mapping of the view being ordered, and discarded
// afterwards; it must not outlive the pass, since the Index
// fields it depends on are reassigned between passes.
type Sorter struct {
	columns []sortColumn
}

// Sorter builds the transient comparator for one execution pass
// of d over the view described by keys (position in view to row
// key). Chains that traverse links are resolved here, once per
// row: any unset link, or a hop landing on a deleted row, marks
// the row null for that column.
func (d *Descriptor) Sorter(keys []store.RowKey) Sorter {
	if !d.IsValid() {
		return Sorter{}
	}
	asc := d.normalizedAscending()
	s := Sorter{columns: make([]sortColumn, len(d.columns))}
	for i, chain := range d.columns {
		last := chain[len(chain)-1]
		sc := sortColumn{table: last.Table, col: last.Col, ascending: asc[i]}
		if len(chain) > 1 {
			sc.translated = make([]store.RowKey, len(keys))
			sc.isNull = make([]bool, len(keys))
			for j, key := range keys {
				cur := key
				for h := 0; h < len(chain)-1; h++ {
					tgt, ok := chain[h].Table.GetLink(cur, chain[h].Col)
					if ok {
						ok = chain[h+1].Table.Has(tgt)
					}
					if !ok {
						sc.isNull[j] = true
						break
					}
					cur = tgt
				}
				if !sc.isNull[j] {
					sc.translated[j] = cur
				}
			}
		}
		s.columns[i] = sc
	}
	return s
}

// Compare compares two rows of the view lexicographically over
// the sorter's columns and returns -1, 0 or 1.
//
// On every column, null (stored or from a broken link) orders
// strictly below any non-null value regardless of the column's
// direction, and two nulls are equal. The direction flag only
// inverts non-null comparisons. If the rows are equal on every
// column: with total set, the tie breaks on the rows' positions
// in the incoming view, making Compare a strict total order
// that also preserves the view's prior order among equals;
// without total, the rows are reported equal (the equivalence
// used for distinct grouping).
func (s *Sorter) Compare(i, j IndexPair, total bool) int {
	for k := range s.columns {
		c := &s.columns[k]
		vi := c.valueAt(i)
		vj := c.valueAt(j)
		ni, nj := vi.IsNull(), vj.IsNull()
		if ni || nj {
			if ni && nj {
				continue
			}
			if ni {
				return -1
			}
			return 1
		}
		if r := mixed.Compare(vi, vj); r != 0 {
			if !c.ascending {
				return -r
			}
			return r
		}
	}
	if !total {
		return 0
	}
	switch {
	case i.Index < j.Index:
		return -1
	case i.Index > j.Index:
		return 1
	default:
		return 0
	}
}

// HasLinks reports whether any column chain actually required
// link traversal for this pass.
func (s *Sorter) HasLinks() bool {
	for i := range s.columns {
		if s.columns[i].translated != nil {
			return true
		}
	}
	return false
}

// AnyIsNull reports whether following the links of any column
// chain from row p broke off before reaching a target row.
func (s *Sorter) AnyIsNull(p IndexPair) bool {
	for i := range s.columns {
		if s.columns[i].isNull != nil && s.columns[i].isNull[p.Index] {
			return true
		}
	}
	return false
}

// CacheFirstColumn resolves the first chain's value for every
// row in v and stores it on the pair, so callers that expose
// the leading sort key after ordering completes do not hit the
// store again. Only the first column is cached.
func (s *Sorter) CacheFirstColumn(v IndexPairs) {
	if len(s.columns) == 0 {
		return
	}
	c := &s.columns[0]
	for i := range v {
		v[i].cached = c.valueAt(v[i])
		v[i].hasCached = true
	}
}
