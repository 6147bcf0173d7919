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
)

// Database is a set of named tables. Link columns resolve
// their target tables through the owning database, so links
// never cross database (and therefore version) boundaries.
type Database struct {
	tables map[string]*Table
	order  []string
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table)}
}

// CreateTable adds an empty table with the given name.
func (db *Database) CreateTable(name string) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("store: empty table name")
	}
	if _, ok := db.tables[name]; ok {
		return nil, fmt.Errorf("store: duplicate table %q", name)
	}
	t := newTable(name)
	db.tables[name] = t
	db.order = append(db.order, name)
	return t, nil
}

// Table returns the table with the given name.
func (db *Database) Table(name string) (*Table, bool) {
	t, ok := db.tables[name]
	return t, ok
}

// Tables returns the tables in creation order.
func (db *Database) Tables() []*Table {
	out := make([]*Table, 0, len(db.order))
	for _, name := range db.order {
		out = append(out, db.tables[name])
	}
	return out
}

// Target resolves the target table of a link column, or
// reports failure if col is not a link column of t or the
// target table no longer exists.
func (db *Database) Target(t *Table, col ColKey) (*Table, bool) {
	c, ok := t.Schema().Column(col)
	if !ok || c.Type != TypeLink {
		return nil, false
	}
	target, ok := db.tables[c.Target]
	return target, ok
}

// Snapshot returns a deep copy of the database in which every
// table is a new instance: same schema shape, same row keys and
// cell contents, fresh instance IDs. The copy shares no mutable
// state with the original, so the two sides may be used from
// different goroutines without coordination.
func (db *Database) Snapshot() *Database {
	out := NewDatabase()
	for _, name := range db.order {
		out.tables[name] = db.tables[name].clone()
		out.order = append(out.order, name)
	}
	return out
}
