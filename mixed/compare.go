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

package mixed

import (
	"math"
	"strings"
)

// rank orders the kinds relative to one another when two
// values cannot be compared natively:
//
//	null < bool < (int|float) < string < timestamp
//
// Int and Float share a rank and compare numerically.
func (k Kind) rank() int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindString:
		return 3
	case KindTimestamp:
		return 4
	default:
		panic("mixed: rank of invalid kind")
	}
}

// Compare compares two values and returns
// -1 if a < b, 0 if a == b, or 1 if a > b.
//
// Compare is a total order: values of the same kind compare
// natively, ints and floats compare numerically with one
// another, and otherwise the kind rank decides. NaN compares
// less than every other number and equal to itself. Null
// compares less than every non-null value; note that the
// ordering engine applies its own null policy before consulting
// Compare, so the comparator never sees nulls here.
func Compare(a, b Value) int {
	ra, rb := a.kind.rank(), b.kind.rank()
	if ra != rb {
		return cmpint(ra, rb)
	}
	switch {
	case a.kind == KindNull:
		return 0
	case a.kind == KindBool:
		return cmpint(int(a.bits), int(b.bits))
	case ra == 2: // int and/or float
		switch {
		case a.kind == KindInt && b.kind == KindInt:
			return cmpint64(int64(a.bits), int64(b.bits))
		case a.kind == KindInt:
			return cmpIntFloat(int64(a.bits), math.Float64frombits(b.bits))
		case b.kind == KindInt:
			return -cmpIntFloat(int64(b.bits), math.Float64frombits(a.bits))
		default:
			return cmpfloat(math.Float64frombits(a.bits), math.Float64frombits(b.bits))
		}
	case a.kind == KindString:
		return strings.Compare(a.str, b.str)
	default: // timestamp
		return cmpint64(int64(a.bits), int64(b.bits))
	}
}

// Equal reports whether a and b are equivalent under Compare.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

func cmpint(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func cmpint64(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func cmpfloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	if an || bn {
		if an && bn {
			return 0
		}
		if an {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// cmpIntFloat compares an int64 against a float64 without
// rounding the int through float64, so ints beyond 2^53 stay
// exact. NaN orders below every number.
func cmpIntFloat(i int64, f float64) int {
	if math.IsNaN(f) {
		return 1
	}
	if f >= 1<<63 {
		return -1
	}
	if f < -(1 << 63) {
		return 1
	}
	t := math.Trunc(f)
	if ti := int64(t); i != ti {
		return cmpint64(i, ti)
	}
	// equal integer parts: the fraction decides
	if f > t {
		return -1
	} else if f < t {
		return 1
	}
	return 0
}
