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

// rcsort loads a database from a YAML/JSON definition or a
// binary snapshot, applies an ordering to one of its tables,
// and prints the resulting view.
//
// Usage:
//
//	rcsort -f testdata/people.yaml -t people -o "SORT(age DESC)"
//	rcsort -f def.yaml -snap out.snap        # write a snapshot
//	rcsort -load out.snap -t people          # read one back
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/EvieLachlanB/realm-core/sorting"
	"github.com/EvieLachlanB/realm-core/store"
)

var (
	defpath  string
	loadpath string
	table    string
	order    string
	snappath string
)

func init() {
	flag.StringVar(&defpath, "f", "", "database definition file (YAML or JSON)")
	flag.StringVar(&loadpath, "load", "", "read the database from a snapshot file instead")
	flag.StringVar(&table, "t", "", "table to order")
	flag.StringVar(&order, "o", "", `ordering, e.g. "SORT(age DESC, boss.name ASC) DISTINCT(name)" (default: the table's ordering from the definition)`)
	flag.StringVar(&snappath, "snap", "", "write a snapshot of the database to this file and exit")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func load() (*store.Database, *store.Definition) {
	if loadpath != "" {
		f, err := os.Open(loadpath)
		if err != nil {
			exitf("%s\n", err)
		}
		defer f.Close()
		db, err := store.ReadSnapshot(f)
		if err != nil {
			exitf("reading snapshot %s: %s\n", loadpath, err)
		}
		return db, nil
	}
	def, err := store.OpenDefinition(defpath)
	if err != nil {
		exitf("%s\n", err)
	}
	db, err := def.Build()
	if err != nil {
		exitf("building %s: %s\n", defpath, err)
	}
	return db, def
}

func writeSnapshot(db *store.Database) {
	f, err := os.Create(snappath)
	if err != nil {
		exitf("%s\n", err)
	}
	defer f.Close()
	if err := store.WriteSnapshot(f, db); err != nil {
		exitf("writing snapshot %s: %s\n", snappath, err)
	}
}

func main() {
	flag.Parse()
	if defpath == "" && loadpath == "" {
		flag.Usage()
		os.Exit(1)
	}
	db, def := load()
	if snappath != "" {
		writeSnapshot(db)
		return
	}
	if table == "" {
		exitf("no table selected (-t)\n")
	}
	t, ok := db.Table(table)
	if !ok {
		exitf("no table %q in database\n", table)
	}
	spec := order
	if spec == "" && def != nil {
		for i := range def.Tables {
			if def.Tables[i].Name == table {
				spec = def.Tables[i].Ordering
				break
			}
		}
	}
	var keys []store.RowKey
	if spec == "" {
		keys = t.Keys()
	} else {
		o, err := sorting.ParseDescription(db, t, spec)
		if err != nil {
			exitf("%s\n", err)
		}
		fmt.Printf("# %s\n", o.Description(t))
		keys = o.Apply(t.Keys())
	}
	cols := t.Schema().Columns()
	for _, key := range keys {
		fmt.Printf("%d:", key)
		for _, c := range cols {
			if c.Type == store.TypeLink {
				if tgt, ok := t.GetLink(key, c.Key); ok {
					fmt.Printf(" %s=@%d", c.Name, tgt)
				}
				continue
			}
			if v := t.Get(key, c.Key); !v.IsNull() {
				fmt.Printf(" %s=%s", c.Name, v)
			}
		}
		fmt.Println()
	}
}
