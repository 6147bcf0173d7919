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
	"strings"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/EvieLachlanB/realm-core/mixed"
)

func TestSchemaKeysStable(t *testing.T) {
	s := NewSchema()
	a, err := s.AddColumn("a", TypeInt, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddColumn("b", TypeString, "")
	if err != nil {
		t.Fatal(err)
	}
	if !s.RemoveColumn(a) {
		t.Fatal("column a not removed")
	}
	if _, ok := s.Column(a); ok {
		t.Errorf("removed column %d still resolves", a)
	}
	// keys are never reused
	c, err := s.AddColumn("c", TypeFloat, "")
	if err != nil {
		t.Fatal(err)
	}
	if c == a || c <= b {
		t.Errorf("column key %d reused or non-monotonic", c)
	}
	if _, err := s.AddColumn("b", TypeInt, ""); err == nil {
		t.Error("duplicate column name accepted")
	}
	if _, err := s.AddColumn("l", TypeLink, ""); err == nil {
		t.Error("link column without target accepted")
	}
	if _, err := s.AddColumn("x", TypeInt, "other"); err == nil {
		t.Error("non-link column with target accepted")
	}
}

func TestTableValuesAndLinks(t *testing.T) {
	db := NewDatabase()
	people, err := db.CreateTable("people")
	if err != nil {
		t.Fatal(err)
	}
	teams, err := db.CreateTable("teams")
	if err != nil {
		t.Fatal(err)
	}
	name, _ := people.AddColumn("name", TypeString, "")
	team, _ := people.AddColumn("team", TypeLink, "teams")
	title, _ := teams.AddColumn("title", TypeString, "")

	t1 := teams.CreateRow()
	if err := teams.Set(t1, title, mixed.String("core")); err != nil {
		t.Fatal(err)
	}
	p1 := people.CreateRow()
	if err := people.Set(p1, name, mixed.String("ada")); err != nil {
		t.Fatal(err)
	}
	if err := people.Set(p1, name, mixed.Int(3)); err == nil {
		t.Error("type-mismatched store accepted")
	}
	if err := people.Set(p1, team, mixed.String("core")); err == nil {
		t.Error("Set on link column accepted")
	}
	if err := people.SetLink(p1, team, t1); err != nil {
		t.Fatal(err)
	}
	got, ok := people.GetLink(p1, team)
	if !ok || got != t1 {
		t.Fatalf("GetLink = (%d, %v), want (%d, true)", got, ok, t1)
	}
	// deleting the target makes the link dangle; the store
	// reports it as still set, resolution happens above
	teams.DeleteRow(t1)
	if teams.Has(t1) {
		t.Error("deleted row still present")
	}
	if v := people.Get(p1, name); v.StringValue() != "ada" {
		t.Errorf("Get(name) = %s", v)
	}
	if v := people.Get(RowKey(99), name); !v.IsNull() {
		t.Errorf("missing row resolved to %s, want null", v)
	}
	// storing null clears the cell
	if err := people.Set(p1, name, mixed.Null()); err != nil {
		t.Fatal(err)
	}
	if v := people.Get(p1, name); !v.IsNull() {
		t.Errorf("cleared cell resolved to %s", v)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	db := NewDatabase()
	tbl, _ := db.CreateTable("t")
	col, _ := tbl.AddColumn("v", TypeInt, "")
	k := tbl.CreateRow()
	if err := tbl.Set(k, col, mixed.Int(1)); err != nil {
		t.Fatal(err)
	}

	snap := db.Snapshot()
	stbl, ok := snap.Table("t")
	if !ok {
		t.Fatal("snapshot lost table")
	}
	if stbl.InstanceID() == tbl.InstanceID() {
		t.Error("snapshot shares instance id with original")
	}
	if !slices.Equal(stbl.Keys(), tbl.Keys()) {
		t.Error("snapshot changed row keys")
	}
	// mutating the original must not show through
	if err := tbl.Set(k, col, mixed.Int(2)); err != nil {
		t.Fatal(err)
	}
	tbl.CreateRow()
	if v := stbl.Get(k, col); v.IntValue() != 1 {
		t.Errorf("snapshot sees mutation: %s", v)
	}
	if stbl.Len() != 1 {
		t.Errorf("snapshot sees new row, len=%d", stbl.Len())
	}
}

const defSrc = `
tables:
  - name: teams
    columns:
      - {name: title, type: string}
    rows:
      - {title: {string: core}}
      - {title: {string: infra}}
  - name: people
    columns:
      - {name: name, type: string}
      - {name: age, type: int}
      - {name: team, type: link, target: teams}
    ordering: "SORT(age DESC)"
    rows:
      - {name: {string: ada}, age: {int: 30}, team: {link: 1}}
      - {name: {string: bob}, age: {int: 20}, team: {link: 2}}
      - {name: {string: cyd}, age: null}
`

func TestDefinitionBuild(t *testing.T) {
	def, err := DecodeDefinition(strings.NewReader(defSrc))
	if err != nil {
		t.Fatal(err)
	}
	if def.Tables[1].Ordering != "SORT(age DESC)" {
		t.Errorf("ordering not carried: %q", def.Tables[1].Ordering)
	}
	db, err := def.Build()
	if err != nil {
		t.Fatal(err)
	}
	people, ok := db.Table("people")
	if !ok {
		t.Fatal("people table missing")
	}
	if people.Len() != 3 {
		t.Fatalf("people has %d rows", people.Len())
	}
	name, _ := people.Schema().ColumnByName("name")
	age, _ := people.Schema().ColumnByName("age")
	team, _ := people.Schema().ColumnByName("team")
	if v := people.Get(2, name.Key); v.StringValue() != "bob" {
		t.Errorf("row 2 name = %s", v)
	}
	// explicit null cells are accepted and resolve to null
	if v := people.Get(3, age.Key); !v.IsNull() {
		t.Errorf("row 3 age = %s, want null", v)
	}
	if tgt, ok := people.GetLink(1, team.Key); !ok || tgt != 1 {
		t.Errorf("row 1 team link = (%d, %v)", tgt, ok)
	}
	if _, ok := people.GetLink(3, team.Key); ok {
		t.Error("row 3 team link should be unset")
	}
	teams, _ := db.Table("teams")
	if tt, ok := db.Target(people, team.Key); !ok || tt != teams {
		t.Error("Target did not resolve teams table")
	}
}
