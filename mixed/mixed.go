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

// Package mixed implements the dynamically-typed cell value
// stored by the row store: a small tagged union over null,
// bool, int, float, string and timestamp, with a total order
// defined across all of them.
//
// The ordering engine treats mixed.Value as opaque: it only
// relies on IsNull and on Compare being a total order over
// non-null values.
package mixed

import (
	"fmt"
	"math"
	"time"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one dynamically-typed cell value.
// The zero value of Value is the null value.
type Value struct {
	kind Kind
	bits uint64 // bool, int, float and timestamp payload
	str  string // string payload
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a value of KindBool.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Int returns a value of KindInt.
func Int(i int64) Value {
	return Value{kind: KindInt, bits: uint64(i)}
}

// Float returns a value of KindFloat.
func Float(f float64) Value {
	return Value{kind: KindFloat, bits: math.Float64bits(f)}
}

// String returns a value of KindString.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Timestamp returns a value of KindTimestamp.
// The precision of the stored value is one nanosecond;
// the location of t is not preserved.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, bits: uint64(t.UnixNano())}
}

// Kind returns the type tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) check(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("mixed: %s value accessed as %s", v.kind, k))
	}
}

// BoolValue returns the payload of a KindBool value.
// BoolValue panics if v is not a bool.
func (v Value) BoolValue() bool {
	v.check(KindBool)
	return v.bits != 0
}

// IntValue returns the payload of a KindInt value.
// IntValue panics if v is not an int.
func (v Value) IntValue() int64 {
	v.check(KindInt)
	return int64(v.bits)
}

// FloatValue returns the payload of a KindFloat value.
// FloatValue panics if v is not a float.
func (v Value) FloatValue() float64 {
	v.check(KindFloat)
	return math.Float64frombits(v.bits)
}

// StringValue returns the payload of a KindString value.
// StringValue panics if v is not a string.
func (v Value) StringValue() string {
	v.check(KindString)
	return v.str
}

// TimeValue returns the payload of a KindTimestamp value in UTC.
// TimeValue panics if v is not a timestamp.
func (v Value) TimeValue() time.Time {
	v.check(KindTimestamp)
	return time.Unix(0, int64(v.bits)).UTC()
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.bits != 0)
	case KindInt:
		return fmt.Sprintf("%d", int64(v.bits))
	case KindFloat:
		return fmt.Sprintf("%g", math.Float64frombits(v.bits))
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindTimestamp:
		return v.TimeValue().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("Value(kind=%d)", int(v.kind))
	}
}
