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

package sorting

import (
	"testing"
)

func TestParseDescriptionRoundTrip(t *testing.T) {
	f := newFixture(t)
	testcases := []string{
		"SORT(age ASC)",
		"SORT(age DESC, name ASC)",
		"DISTINCT(name)",
		"SORT(boss.name ASC, age DESC) DISTINCT(team.title)",
		"DISTINCT(name) SORT(age ASC) DISTINCT(team.title)",
	}
	for _, src := range testcases {
		o, err := ParseDescription(f.db, f.people, src)
		if err != nil {
			t.Fatalf("parsing %q: %s", src, err)
		}
		if got := o.Description(f.people); got != src {
			t.Errorf("round trip of %q produced %q", src, got)
		}
	}
}

func TestParseDescriptionResolves(t *testing.T) {
	f := newFixture(t)
	o, err := ParseDescription(f.db, f.people, "SORT(boss.age DESC)")
	if err != nil {
		t.Fatal(err)
	}
	st := o.At(0)
	chains := st.ExportColumnIndices()
	if len(chains) != 1 || len(chains[0]) != 2 ||
		chains[0][0] != f.boss || chains[0][1] != f.age {
		t.Errorf("resolved chains = %v", chains)
	}
	if got := st.ExportOrder(); len(got) != 1 || got[0] {
		t.Errorf("resolved directions = %v", got)
	}
}

func TestParseDescriptionErrors(t *testing.T) {
	f := newFixture(t)
	bad := []string{
		"ORDER BY age",
		"SORT(age",
		"SORT(nosuch ASC)",
		"SORT(name.age ASC)",    // name is not a link column
		"DISTINCT(name DESC)",   // direction in distinct
		"SORT(age SIDEWAYS)",    // unknown direction
		"SORT(age ASC) garbage", // trailing junk
	}
	for _, src := range bad {
		if _, err := ParseDescription(f.db, f.people, src); err == nil {
			t.Errorf("parsing %q: expected error", src)
		}
	}
}
