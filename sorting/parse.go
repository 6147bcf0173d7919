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
	"fmt"
	"strings"

	"github.com/EvieLachlanB/realm-core/store"
)

// ParseDescription parses the textual stage form produced by
// Ordering.Description back into an Ordering bound to t:
//
//	SORT(age DESC, boss.name ASC) DISTINCT(team.title)
//
// Column names are resolved against t, following link columns
// through db, so the result is equivalent to building the
// descriptors by hand. Directions default to ASC and are only
// allowed in SORT stages.
func ParseDescription(db *store.Database, t *store.Table, src string) (*Ordering, error) {
	out := new(Ordering)
	rest := strings.TrimSpace(src)
	for rest != "" {
		var kind Kind
		switch {
		case strings.HasPrefix(rest, "SORT("):
			kind = KindSort
			rest = rest[len("SORT("):]
		case strings.HasPrefix(rest, "DISTINCT("):
			kind = KindDistinct
			rest = rest[len("DISTINCT("):]
		default:
			return nil, fmt.Errorf("sorting: expected SORT( or DISTINCT( at %q", rest)
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("sorting: missing ) in ordering description")
		}
		inner := rest[:end]
		rest = strings.TrimSpace(rest[end+1:])

		var chains [][]store.ColKey
		var ascending []bool
		for _, entry := range strings.Split(inner, ",") {
			fields := strings.Fields(entry)
			if len(fields) == 0 {
				return nil, fmt.Errorf("sorting: empty entry in %s stage", kind)
			}
			asc := true
			switch {
			case len(fields) == 1:
			case len(fields) == 2 && fields[1] == "ASC":
			case len(fields) == 2 && fields[1] == "DESC":
				asc = false
			default:
				return nil, fmt.Errorf("sorting: cannot parse entry %q", strings.TrimSpace(entry))
			}
			if kind == KindDistinct && len(fields) == 2 {
				return nil, fmt.Errorf("sorting: direction not allowed in DISTINCT entry %q", strings.TrimSpace(entry))
			}
			chain, err := resolvePath(db, t, fields[0])
			if err != nil {
				return nil, err
			}
			chains = append(chains, chain)
			ascending = append(ascending, asc)
		}

		switch kind {
		case KindSort:
			d, err := NewSort(db, t, chains, ascending)
			if err != nil {
				return nil, err
			}
			out.AppendSort(d)
		case KindDistinct:
			d, err := NewDistinct(db, t, chains)
			if err != nil {
				return nil, err
			}
			out.AppendDistinct(d)
		}
	}
	return out, nil
}

// resolvePath turns a dotted column path into a column-key
// chain rooted at t.
func resolvePath(db *store.Database, t *store.Table, path string) ([]store.ColKey, error) {
	segs := strings.Split(path, ".")
	chain := make([]store.ColKey, len(segs))
	cur := t
	for i, seg := range segs {
		col, ok := cur.Schema().ColumnByName(seg)
		if !ok {
			return nil, fmt.Errorf("sorting: no column %q in table %q", seg, cur.Name())
		}
		chain[i] = col.Key
		if i < len(segs)-1 {
			if col.Type != store.TypeLink {
				return nil, fmt.Errorf("sorting: column %q in table %q is not a link column", seg, cur.Name())
			}
			next, ok := db.Target(cur, col.Key)
			if !ok {
				return nil, fmt.Errorf("sorting: link target %q of column %q does not exist", col.Target, seg)
			}
			cur = next
		}
	}
	return chain, nil
}
