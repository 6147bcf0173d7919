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
	"fmt"
	"time"
)

// Values are encoded in JSON as single-key objects so that
// decoding is type-exact and does not depend on JSON's own
// number semantics:
//
//	null, {"bool": true}, {"int": 3}, {"float": 1.5},
//	{"string": "x"}, {"timestamp": "2022-01-01T00:00:00Z"}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(map[string]bool{"bool": v.BoolValue()})
	case KindInt:
		return json.Marshal(map[string]int64{"int": v.IntValue()})
	case KindFloat:
		return json.Marshal(map[string]float64{"float": v.FloatValue()})
	case KindString:
		return json.Marshal(map[string]string{"string": v.StringValue()})
	case KindTimestamp:
		return json.Marshal(map[string]string{"timestamp": v.TimeValue().Format(time.RFC3339Nano)})
	default:
		return nil, fmt.Errorf("mixed: cannot marshal kind %d", int(v.kind))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	// a bare null is the only non-object encoding; it has to be
	// recognized up front, since unmarshalling null into a map
	// succeeds without populating it
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Null()
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("mixed: decoding value: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("mixed: value object must have exactly one key, got %d", len(raw))
	}
	for key, body := range raw {
		switch key {
		case "bool":
			var b bool
			if err := json.Unmarshal(body, &b); err != nil {
				return fmt.Errorf("mixed: decoding bool: %w", err)
			}
			*v = Bool(b)
		case "int":
			var i int64
			if err := json.Unmarshal(body, &i); err != nil {
				return fmt.Errorf("mixed: decoding int: %w", err)
			}
			*v = Int(i)
		case "float":
			var f float64
			if err := json.Unmarshal(body, &f); err != nil {
				return fmt.Errorf("mixed: decoding float: %w", err)
			}
			*v = Float(f)
		case "string":
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return fmt.Errorf("mixed: decoding string: %w", err)
			}
			*v = String(s)
		case "timestamp":
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return fmt.Errorf("mixed: decoding timestamp: %w", err)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("mixed: decoding timestamp: %w", err)
			}
			*v = Timestamp(t)
		default:
			return fmt.Errorf("mixed: unknown value tag %q", key)
		}
	}
	return nil
}
