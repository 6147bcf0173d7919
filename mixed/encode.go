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
	"encoding/binary"
	"math"
)

// AppendBinary appends a canonical binary encoding of v to dst
// and returns the extended slice. The encoding is prefix-free
// (strings are length-prefixed), so concatenated encodings of
// equal value tuples are equal byte strings and encodings of
// distinct tuples differ. It is used for hash-based grouping;
// it is not an order-preserving encoding.
//
// Values that compare equal produce equal encodings: a float
// holding an integral value encodes like the equivalent int.
func (v Value) AppendBinary(dst []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, byte(KindNull))
	case KindBool:
		return append(dst, byte(KindBool), byte(v.bits))
	case KindInt, KindFloat:
		// normalize integral floats so that Equal values
		// hash identically; NaN bit patterns collapse to one
		// canonical encoding for the same reason
		if v.kind == KindFloat {
			f := v.FloatValue()
			if math.IsNaN(f) {
				return appendUint64(append(dst, byte(KindFloat)), math.Float64bits(math.NaN()))
			}
			if i, ok := exactInt(f); ok {
				return appendUint64(append(dst, byte(KindInt)), uint64(i))
			}
			return appendUint64(append(dst, byte(KindFloat)), v.bits)
		}
		return appendUint64(append(dst, byte(KindInt)), v.bits)
	case KindString:
		dst = append(dst, byte(KindString))
		dst = appendUint64(dst, uint64(len(v.str)))
		return append(dst, v.str...)
	case KindTimestamp:
		return appendUint64(append(dst, byte(KindTimestamp)), v.bits)
	default:
		panic("mixed: encoding of invalid kind")
	}
}

// exactInt reports whether f is exactly representable as an
// int64 and returns that representation. The range guards keep
// the int64 conversion defined; out-of-range floats (and Inf,
// and NaN) stay floats.
func exactInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func appendUint64(dst []byte, u uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	return append(dst, buf[:]...)
}
