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

// Package sorting implements the sort/distinct ordering engine
// of the row store.
//
// A Descriptor names one or more column chains on a table
// (chains may traverse single-valued links into other tables)
// and is either a sort stage, which also carries one direction
// per chain, or a distinct stage. Descriptors accumulate into
// an Ordering, which applies its stages in sequence to a view
// (a list of row keys) and produces the reordered, possibly
// deduplicated view.
//
// Each stage execution builds a transient Sorter: the chains
// are resolved once per surviving row (broken links become
// nulls), and rows are then compared lexicographically over
// the chains. Null compares below every non-null value on a
// column regardless of direction.
//
// An Ordering is bound to the table instances its chains were
// resolved against. To move it to another snapshot of the same
// database, freeze it into a HandoverPatch (a table-independent,
// consume-once record of the stack's shape) and rebind the
// patch on the receiving side.
package sorting
