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

package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/EvieLachlanB/realm-core/mixed"
)

// RowKey is a stable identifier of a row within one table
// instance. Row keys are assigned sequentially starting at 1
// and never reused; the zero value is invalid.
type RowKey int64

// InvalidRowKey is never assigned to a row.
const InvalidRowKey RowKey = 0

type row struct {
	vals  map[ColKey]mixed.Value
	links map[ColKey]RowKey
}

// Table is one table instance. A table belongs to exactly one
// Database; snapshotting the database produces new instances
// (fresh InstanceID) with the same schema shape and row keys.
//
// Tables carry no internal synchronization: an instance must
// not be mutated while another goroutine reads it. Snapshots
// are independent and safe to use concurrently with the
// original.
type Table struct {
	name    string
	id      uuid.UUID
	schema  *Schema
	rows    map[RowKey]*row
	order   []RowKey // insertion order
	nextKey RowKey
}

func newTable(name string) *Table {
	return &Table{
		name:   name,
		id:     uuid.New(),
		schema: NewSchema(),
		rows:   make(map[RowKey]*row),
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// InstanceID identifies this table instance; snapshots of the
// same table have different instance IDs.
func (t *Table) InstanceID() uuid.UUID { return t.id }

// Schema returns the table's schema.
func (t *Table) Schema() *Schema { return t.schema }

// AddColumn is shorthand for Schema().AddColumn.
func (t *Table) AddColumn(name string, typ ColumnType, target string) (ColKey, error) {
	return t.schema.AddColumn(name, typ, target)
}

// ColumnName resolves a column key to its name, or "?" if the
// column no longer exists. Used for diagnostics only.
func (t *Table) ColumnName(key ColKey) string {
	if col, ok := t.schema.Column(key); ok {
		return col.Name
	}
	return "?"
}

// CreateRow allocates a new row and returns its key.
func (t *Table) CreateRow() RowKey {
	t.nextKey++
	key := t.nextKey
	t.rows[key] = &row{
		vals:  make(map[ColKey]mixed.Value),
		links: make(map[ColKey]RowKey),
	}
	t.order = append(t.order, key)
	return key
}

// DeleteRow removes a row and reports whether it was present.
// Links pointing at the deleted row are not eagerly cleared;
// traversing one afterwards behaves like an unset link.
func (t *Table) DeleteRow(key RowKey) bool {
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	for i := range t.order {
		if t.order[i] == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether the table contains a row with the given key.
func (t *Table) Has(key RowKey) bool {
	_, ok := t.rows[key]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Keys returns the row keys in insertion order. The returned
// slice is a copy; it is the canonical unordered "view" fed to
// the ordering engine.
func (t *Table) Keys() []RowKey {
	out := make([]RowKey, len(t.order))
	copy(out, t.order)
	return out
}

// Set stores a value in a non-link column. Storing the null
// value clears the cell.
func (t *Table) Set(key RowKey, col ColKey, v mixed.Value) error {
	r, ok := t.rows[key]
	if !ok {
		return fmt.Errorf("store: table %q has no row %d", t.name, key)
	}
	c, ok := t.schema.Column(col)
	if !ok {
		return fmt.Errorf("store: table %q has no column %d", t.name, col)
	}
	if c.Type == TypeLink {
		return fmt.Errorf("store: column %q is a link column; use SetLink", c.Name)
	}
	if v.IsNull() {
		delete(r.vals, col)
		return nil
	}
	if v.Kind() != c.Type.valueKind() {
		return fmt.Errorf("store: cannot store %s value in %s column %q", v.Kind(), c.Type, c.Name)
	}
	r.vals[col] = v
	return nil
}

// Get returns the value stored at (key, col), or the null value
// if the row or cell is absent. Get never fails: resolving a
// missing cell as null is what the ordering comparator relies on.
func (t *Table) Get(key RowKey, col ColKey) mixed.Value {
	r, ok := t.rows[key]
	if !ok {
		return mixed.Null()
	}
	return r.vals[col]
}

// SetLink points a link column at a row of the target table.
// The target row is not validated here; a dangling link reads
// back as unset.
func (t *Table) SetLink(key RowKey, col ColKey, target RowKey) error {
	r, ok := t.rows[key]
	if !ok {
		return fmt.Errorf("store: table %q has no row %d", t.name, key)
	}
	c, ok := t.schema.Column(col)
	if !ok {
		return fmt.Errorf("store: table %q has no column %d", t.name, col)
	}
	if c.Type != TypeLink {
		return fmt.Errorf("store: column %q is not a link column", c.Name)
	}
	if target == InvalidRowKey {
		delete(r.links, col)
		return nil
	}
	r.links[col] = target
	return nil
}

// ClearLink unsets a link cell.
func (t *Table) ClearLink(key RowKey, col ColKey) error {
	return t.SetLink(key, col, InvalidRowKey)
}

// GetLink returns the row key a link cell points at and reports
// whether the link is set. A missing row behaves like an unset
// link.
func (t *Table) GetLink(key RowKey, col ColKey) (RowKey, bool) {
	r, ok := t.rows[key]
	if !ok {
		return InvalidRowKey, false
	}
	target, ok := r.links[col]
	return target, ok
}

func (t *Table) clone() *Table {
	out := &Table{
		name:    t.name,
		id:      uuid.New(),
		schema:  t.schema.clone(),
		rows:    make(map[RowKey]*row, len(t.rows)),
		order:   make([]RowKey, len(t.order)),
		nextKey: t.nextKey,
	}
	copy(out.order, t.order)
	for key, r := range t.rows {
		nr := &row{
			vals:  make(map[ColKey]mixed.Value, len(r.vals)),
			links: make(map[ColKey]RowKey, len(r.links)),
		}
		for c, v := range r.vals {
			nr.vals[c] = v
		}
		for c, l := range r.links {
			nr.links[c] = l
		}
		out.rows[key] = nr
	}
	return out
}
