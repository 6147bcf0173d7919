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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/EvieLachlanB/realm-core/mixed"
)

// ColumnDef describes one column in a database definition.
type ColumnDef struct {
	Name string `json:"name"`
	// Type is one of bool, int, float, string, timestamp, link.
	Type string `json:"type"`
	// Target is the table a link column points into.
	Target string `json:"target,omitempty"`
}

// TableDef describes one table in a database definition.
// Rows are listed as column-name to value maps; the n-th row
// listed receives row key n. Link cells are written as
// {"link": <row key>}.
type TableDef struct {
	Name    string                       `json:"name"`
	Columns []ColumnDef                  `json:"columns"`
	Rows    []map[string]json.RawMessage `json:"rows,omitempty"`
	// Ordering is an optional textual ordering description
	// (e.g. "SORT(age DESC, name ASC)"); it is carried verbatim
	// and interpreted by the sorting package.
	Ordering string `json:"ordering,omitempty"`
}

// Definition describes a whole database. Definitions are
// accepted in YAML or JSON.
type Definition struct {
	Tables []TableDef `json:"tables"`
}

// just pick an upper limit to prevent DoS
const maxDefSize = 8 * 1024 * 1024

// DecodeDefinition decodes a database definition from src.
//
// See also: OpenDefinition
func DecodeDefinition(src io.Reader) (*Definition, error) {
	buf, err := io.ReadAll(io.LimitReader(src, maxDefSize+1))
	if err != nil {
		return nil, err
	}
	if len(buf) > maxDefSize {
		return nil, fmt.Errorf("store: definition beyond limit %d", maxDefSize)
	}
	d := new(Definition)
	if err := yaml.Unmarshal(buf, d); err != nil {
		return nil, fmt.Errorf("store: decoding definition: %w", err)
	}
	return d, nil
}

// OpenDefinition reads a database definition from a file.
func OpenDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeDefinition(f)
}

type linkCell struct {
	Link RowKey `json:"link"`
}

// Build materializes the definition into a database.
// Tables and schemas are created first, then rows, then links,
// so links may point forward and across tables.
func (d *Definition) Build() (*Database, error) {
	db := NewDatabase()
	for i := range d.Tables {
		td := &d.Tables[i]
		t, err := db.CreateTable(td.Name)
		if err != nil {
			return nil, err
		}
		for _, cd := range td.Columns {
			typ, err := ParseColumnType(cd.Type)
			if err != nil {
				return nil, fmt.Errorf("store: table %q: %w", td.Name, err)
			}
			if _, err := t.AddColumn(cd.Name, typ, cd.Target); err != nil {
				return nil, err
			}
		}
		for range td.Rows {
			t.CreateRow()
		}
	}
	// second pass: populate cells now that every row exists
	for i := range d.Tables {
		td := &d.Tables[i]
		t, _ := db.Table(td.Name)
		for n, cells := range td.Rows {
			key := RowKey(n + 1)
			for name, raw := range cells {
				col, ok := t.Schema().ColumnByName(name)
				if !ok {
					return nil, fmt.Errorf("store: table %q has no column %q", td.Name, name)
				}
				if col.Type == TypeLink {
					var lc linkCell
					if err := json.Unmarshal(raw, &lc); err != nil {
						return nil, fmt.Errorf("store: table %q row %d column %q: %w", td.Name, key, name, err)
					}
					if err := t.SetLink(key, col.Key, lc.Link); err != nil {
						return nil, err
					}
					continue
				}
				var v mixed.Value
				if err := json.Unmarshal(raw, &v); err != nil {
					return nil, fmt.Errorf("store: table %q row %d column %q: %w", td.Name, key, name, err)
				}
				if err := t.Set(key, col.Key, v); err != nil {
					return nil, err
				}
			}
		}
	}
	return db, nil
}
