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

// Package store implements the in-memory, multi-version row
// store that the ordering engine operates on: schemas with
// stable column keys, tables with stable row keys, single-valued
// links between tables, and whole-database snapshots.
package store

import (
	"fmt"

	"github.com/EvieLachlanB/realm-core/mixed"
)

// ColKey is a stable identifier of a column within a schema.
// Column keys are never reused: removing a column leaves a gap,
// so a key recorded elsewhere (e.g. in a handover patch) either
// still names the same column or no longer resolves at all.
type ColKey int32

// InvalidColKey is never assigned to a column.
const InvalidColKey ColKey = -1

// ColumnType enumerates the storable column types.
type ColumnType uint8

const (
	TypeBool ColumnType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeTimestamp
	TypeLink
)

func (t ColumnType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeTimestamp:
		return "timestamp"
	case TypeLink:
		return "link"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseColumnType is the inverse of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "bool":
		return TypeBool, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "link":
		return TypeLink, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// valueKind maps a column type to the value kind it stores.
// Link columns store no mixed value.
func (t ColumnType) valueKind() mixed.Kind {
	switch t {
	case TypeBool:
		return mixed.KindBool
	case TypeInt:
		return mixed.KindInt
	case TypeFloat:
		return mixed.KindFloat
	case TypeString:
		return mixed.KindString
	case TypeTimestamp:
		return mixed.KindTimestamp
	default:
		return mixed.KindNull
	}
}

// Column describes one column of a schema.
type Column struct {
	Key  ColKey
	Name string
	Type ColumnType
	// Target is the name of the table a link column points
	// into; empty for non-link columns.
	Target string
}

// Schema is an ordered set of columns with stable keys.
type Schema struct {
	cols []Column
	next ColKey
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// AddColumn appends a column and returns its key.
// Link columns must name a target table; non-link columns
// must not.
func (s *Schema) AddColumn(name string, typ ColumnType, target string) (ColKey, error) {
	if name == "" {
		return InvalidColKey, fmt.Errorf("store: empty column name")
	}
	if _, ok := s.ColumnByName(name); ok {
		return InvalidColKey, fmt.Errorf("store: duplicate column %q", name)
	}
	if (typ == TypeLink) != (target != "") {
		if typ == TypeLink {
			return InvalidColKey, fmt.Errorf("store: link column %q needs a target table", name)
		}
		return InvalidColKey, fmt.Errorf("store: non-link column %q cannot have a target table", name)
	}
	key := s.next
	s.next++
	s.cols = append(s.cols, Column{Key: key, Name: name, Type: typ, Target: target})
	return key, nil
}

// RemoveColumn removes the column with the given key and
// reports whether it was present. The key is not reused.
func (s *Schema) RemoveColumn(key ColKey) bool {
	for i := range s.cols {
		if s.cols[i].Key == key {
			s.cols = append(s.cols[:i], s.cols[i+1:]...)
			return true
		}
	}
	return false
}

// Column returns the column with the given key.
func (s *Schema) Column(key ColKey) (Column, bool) {
	for i := range s.cols {
		if s.cols[i].Key == key {
			return s.cols[i], true
		}
	}
	return Column{}, false
}

// ColumnByName returns the column with the given name.
func (s *Schema) ColumnByName(name string) (Column, bool) {
	for i := range s.cols {
		if s.cols[i].Name == name {
			return s.cols[i], true
		}
	}
	return Column{}, false
}

// Columns returns a copy of the column list in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

func (s *Schema) clone() *Schema {
	return &Schema{cols: s.Columns(), next: s.next}
}
