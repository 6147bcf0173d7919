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
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	ts := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	testcases := []struct {
		a, b Value
		want int
	}{
		{Null(), Null(), 0},
		{Null(), Int(-100), -1},
		{Bool(false), Bool(true), -1},
		{Bool(true), Bool(true), 0},
		{Int(1), Int(2), -1},
		{Int(3), Int(3), 0},
		{Int(-1), Int(-2), 1},
		{Float(1.5), Float(2.5), -1},
		{Int(2), Float(2.0), 0},
		{Int(2), Float(1.5), 1},
		{Float(2.5), Int(3), -1},
		{String("a"), String("b"), -1},
		{String("b"), String("b"), 0},
		{Timestamp(ts), Timestamp(ts.Add(time.Second)), -1},
		// cross-kind rank: bool < numeric < string < timestamp
		{Bool(true), Int(0), -1},
		{Int(1000), String(""), -1},
		{String("zzz"), Timestamp(ts), -1},
	}
	for i := range testcases {
		tc := &testcases[i]
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Compare(tc.b, tc.a); got != -tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestCompareNaN(t *testing.T) {
	nan := Float(math.NaN())
	testcases := []struct {
		a, b Value
		want int
	}{
		{nan, nan, 0},
		{nan, Float(math.Float64frombits(0x7ff8000000000001)), 0},
		{nan, Float(1), -1},
		{nan, Float(math.Inf(-1)), -1},
		{nan, Int(math.MinInt64), -1},
		// NaN stays a numeric value: above bools, below strings
		{nan, Bool(true), 1},
		{nan, String(""), -1},
	}
	for i := range testcases {
		tc := &testcases[i]
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Compare(tc.b, tc.a); got != -tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestCompareIntFloatExact(t *testing.T) {
	// ints beyond 2^53 must not round through float64
	const big = int64(1) << 53
	testcases := []struct {
		a, b Value
		want int
	}{
		{Int(big + 1), Float(float64(big)), 1},
		{Int(big), Float(float64(big)), 0},
		{Int(big - 1), Float(float64(big)), -1},
		{Int(math.MaxInt64), Float(math.Inf(1)), -1},
		{Int(math.MinInt64), Float(math.Inf(-1)), 1},
		{Int(math.MaxInt64), Float(1e300), -1},
		{Int(math.MinInt64), Float(-1e300), 1},
		{Int(3), Float(3.5), -1},
		{Int(-3), Float(-3.5), 1},
	}
	for i := range testcases {
		tc := &testcases[i]
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Compare(tc.b, tc.a); got != -tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}
	// unequal under Compare implies unequal encodings
	a := Int(big + 1).AppendBinary(nil)
	b := Float(float64(big)).AppendBinary(nil)
	if bytes.Equal(a, b) {
		t.Error("unequal values share an encoding")
	}
}

func TestAppendBinaryEquality(t *testing.T) {
	// values that compare equal must encode identically;
	// values that differ must encode differently
	equal := [][2]Value{
		{Int(7), Float(7.0)},
		{String("x"), String("x")},
		{Bool(false), Bool(false)},
		// every NaN bit pattern is the same value
		{Float(math.NaN()), Float(math.Float64frombits(0x7ff8000000000001))},
	}
	for i := range equal {
		a := equal[i][0].AppendBinary(nil)
		b := equal[i][1].AppendBinary(nil)
		if !bytes.Equal(a, b) {
			t.Errorf("equal values %s and %s encode differently", equal[i][0], equal[i][1])
		}
	}
	distinct := []Value{
		Null(), Bool(false), Bool(true), Int(0), Int(1), Float(0.5),
		Float(math.NaN()), Float(math.Inf(1)), Float(math.Inf(-1)),
		String(""), String("a"), String("ab"),
		Timestamp(time.Unix(0, 0)), Timestamp(time.Unix(1, 0)),
	}
	seen := make(map[string]Value)
	for _, v := range distinct {
		enc := string(v.AppendBinary(nil))
		if prev, ok := seen[enc]; ok {
			t.Errorf("values %s and %s share encoding %q", prev, v, enc)
		}
		seen[enc] = v
	}
}

func TestAppendBinaryPrefixFree(t *testing.T) {
	// tuple encodings must not collide across boundaries
	t1 := String("ab").AppendBinary(nil)
	t1 = String("c").AppendBinary(t1)
	t2 := String("a").AppendBinary(nil)
	t2 = String("bc").AppendBinary(t2)
	if bytes.Equal(t1, t2) {
		t.Errorf("tuple encodings collide: %q", t1)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	vals := []Value{
		Null(),
		Bool(true),
		Int(-42),
		Float(2.25),
		String("hello"),
		Timestamp(time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	for _, v := range vals {
		buf, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %s", v, err)
		}
		var got Value
		if err := json.Unmarshal(buf, &got); err != nil {
			t.Fatalf("unmarshal %q: %s", buf, err)
		}
		if got.Kind() != v.Kind() || !Equal(got, v) {
			t.Errorf("round trip of %s produced %s", v, got)
		}
	}
}

func TestJSONNull(t *testing.T) {
	for _, src := range []string{"null", " null ", "\tnull\n"} {
		var v Value
		if err := json.Unmarshal([]byte(src), &v); err != nil {
			t.Fatalf("decoding %q: %s", src, err)
		}
		if !v.IsNull() {
			t.Errorf("decoding %q produced %s", src, v)
		}
	}
	// null cells inside a larger document decode too
	var cells map[string]Value
	if err := json.Unmarshal([]byte(`{"age": null, "name": {"string": "x"}}`), &cells); err != nil {
		t.Fatal(err)
	}
	if !cells["age"].IsNull() {
		t.Errorf("age = %s, want null", cells["age"])
	}
}

func TestJSONErrors(t *testing.T) {
	bad := []string{
		`{"int": 1, "float": 2}`,
		`{"frob": 1}`,
		`{"timestamp": "not-a-time"}`,
		`3`,
	}
	for _, src := range bad {
		var v Value
		if err := json.Unmarshal([]byte(src), &v); err == nil {
			t.Errorf("decoding %q: expected error", src)
		}
	}
}
