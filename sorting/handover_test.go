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
	"errors"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/EvieLachlanB/realm-core/mixed"
	"github.com/EvieLachlanB/realm-core/store"
)

func buildStack(t *testing.T, f *fixture) *Ordering {
	t.Helper()
	o := new(Ordering)
	o.AppendSort(f.sortBy(t, [][]store.ColKey{{f.age}}, []bool{false}))
	o.AppendDistinct(f.distinctBy(t, [][]store.ColKey{{f.name}}))
	o.AppendSort(f.sortBy(t, [][]store.ColKey{{f.boss, f.name}}, nil))
	return o
}

func TestPatchRoundTrip(t *testing.T) {
	f := newFixture(t)
	boss := f.addPerson(t, mixed.String("zoe"), mixed.Int(50))
	k1 := f.addPerson(t, mixed.String("a"), mixed.Int(30))
	k2 := f.addPerson(t, mixed.String("b"), mixed.Int(20))
	k3 := f.addPerson(t, mixed.String("a"), mixed.Int(30))
	f.people.SetLink(k2, f.boss, boss)

	src := buildStack(t, f)
	patch := GeneratePatch(src)

	// rebind against a snapshot: a different table instance
	// with the same schema shape
	snap := f.db.Snapshot()
	speople, _ := snap.Table("people")
	got, err := FromPatch(patch, snap, speople)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != src.Len() {
		t.Fatalf("rebound stack has %d stages, want %d", got.Len(), src.Len())
	}
	if got.At(2).Table() != speople {
		t.Error("rebound stage still bound to the old instance")
	}
	if d1, d2 := src.Description(f.people), got.Description(speople); d1 != d2 {
		t.Errorf("descriptions diverge: %q vs %q", d1, d2)
	}
	keys := []store.RowKey{boss, k1, k2, k3}
	if a, b := src.Apply(keys), got.Apply(keys); !slices.Equal(a, b) {
		t.Errorf("execution diverges: %v vs %v", a, b)
	}
	// the source ordering is untouched by patch generation
	if src.Len() != 3 {
		t.Error("GeneratePatch mutated the source stack")
	}
}

func TestPatchConsumedOnce(t *testing.T) {
	f := newFixture(t)
	src := buildStack(t, f)
	patch := GeneratePatch(src)
	if _, err := FromPatch(patch, f.db, f.people); err != nil {
		t.Fatal(err)
	}
	_, err := FromPatch(patch, f.db, f.people)
	if !errors.Is(err, ErrPatchConsumed) {
		t.Errorf("second consumption: got %v, want ErrPatchConsumed", err)
	}
}

func TestPatchSchemaEvolution(t *testing.T) {
	f := newFixture(t)
	src := buildStack(t, f)
	patch := GeneratePatch(src)

	// drop the age column on the receiving side: rebinding
	// must report an error, not panic
	snap := f.db.Snapshot()
	speople, _ := snap.Table("people")
	speople.Schema().RemoveColumn(f.age)
	_, err := FromPatch(patch, snap, speople)
	if err == nil {
		t.Fatal("rebinding against an evolved schema succeeded")
	}
	if !errors.Is(err, ErrUnresolvedColumn) {
		t.Errorf("got %v, want ErrUnresolvedColumn", err)
	}
	// failing consumption still consumes
	if _, err := FromPatch(patch, f.db, f.people); !errors.Is(err, ErrPatchConsumed) {
		t.Error("failed rebinding left the patch consumable")
	}
}

func TestPatchCrossGoroutine(t *testing.T) {
	// single producer, single consumer, no locking around the
	// patch itself
	f := newFixture(t)
	k1 := f.addPerson(t, mixed.String("b"), mixed.Int(2))
	k2 := f.addPerson(t, mixed.String("a"), mixed.Int(1))
	src := new(Ordering)
	src.AppendSort(f.sortBy(t, [][]store.ColKey{{f.name}}, nil))
	patch := GeneratePatch(src)
	snap := f.db.Snapshot()

	done := make(chan []store.RowKey, 1)
	go func() {
		speople, _ := snap.Table("people")
		o, err := FromPatch(patch, snap, speople)
		if err != nil {
			done <- nil
			return
		}
		done <- o.Apply(speople.Keys())
	}()
	got := <-done
	want := []store.RowKey{k2, k1}
	if !slices.Equal(got, want) {
		t.Errorf("rebound ordering produced %v, want %v", got, want)
	}
}
