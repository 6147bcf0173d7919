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
	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
)

// Execute applies the stage to the working view in place.
// s must have been built by d.Sorter against the row-to-key
// mapping of *v. next is the following stage of the stack, if
// any; a stage may consult it to save a pass, as long as the
// final stack output stays identical to executing every stage
// strictly in order. Sort stages here always perform their own
// full pass and ignore next; distinct stages do not depend on
// what follows them. Executing an invalid descriptor is a no-op.
func (d *Descriptor) Execute(v *IndexPairs, s *Sorter, next *Descriptor) {
	if !d.IsValid() {
		return
	}
	switch d.kind {
	case KindSort:
		d.executeSort(*v, s)
	case KindDistinct:
		d.executeDistinct(v, s)
	}
}

// executeSort reorders the view by the comparator in total-
// ordering mode. The position tie-break inside Compare makes
// the order strict, so the result is deterministic and equal
// rows keep their relative order from the input view.
func (d *Descriptor) executeSort(v IndexPairs, s *Sorter) {
	slices.SortFunc(v, func(a, b IndexPair) bool {
		return s.Compare(a, b, true) < 0
	})
}

// executeDistinct retains the first row of every equivalence
// class under the comparator and drops the rest, preserving
// first-occurrence order. Rows are grouped by a siphash over
// the canonical encoding of their resolved key tuple; equality
// inside a bucket is confirmed with the comparator in
// equivalence mode, so hash collisions cannot merge distinct
// classes.
func (d *Descriptor) executeDistinct(v *IndexPairs, s *Sorter) {
	in := *v
	out := in[:0]
	buckets := make(map[uint64][]int, len(in))
	var buf []byte
	for _, p := range in {
		buf = buf[:0]
		for k := range s.columns {
			buf = s.columns[k].valueAt(p).AppendBinary(buf)
		}
		h := siphash.Hash(0, 0, buf)
		dup := false
		for _, idx := range buckets[h] {
			if s.Compare(out[idx], p, false) == 0 {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], len(out))
		out = append(out, p)
	}
	*v = out
}
