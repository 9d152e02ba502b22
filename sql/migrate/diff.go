// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"sort"

	"github.com/stencildb/stencil/sql/schema"
)

// A SchemaDiff describes the structural difference between two schema
// snapshots. Its entries hold deep copies of the target definitions, so
// the corrector may prune them without touching the input schemas.
type SchemaDiff struct {
	CreateTables  []*CreateTable
	DropTables    []string
	AlterTables   []*AlterTable
	CreateIndexes []*CreateIndex
	DropIndexes   []*DropIndex
	AlterIndexes  []*AlterIndex
}

// Empty reports whether the diff holds no changes.
func (d *SchemaDiff) Empty() bool {
	return len(d.CreateTables) == 0 && len(d.DropTables) == 0 && len(d.AlterTables) == 0 &&
		len(d.CreateIndexes) == 0 && len(d.DropIndexes) == 0 && len(d.AlterIndexes) == 0
}

// Diff returns the diff for migrating the "from" schema to the "to"
// schema. It is a pure function: the inputs are not modified, and the
// output is deterministic. Table sets are emitted sorted by name.
func Diff(from, to *schema.Schema) *SchemaDiff {
	d := &SchemaDiff{}
	for _, name := range sortedNames(from) {
		if _, ok := to.Table(name); !ok {
			d.DropTables = append(d.DropTables, name)
		}
	}
	for _, name := range sortedNames(to) {
		t2, _ := to.Table(name)
		t1, ok := from.Table(name)
		if !ok {
			ct := t2.Clone()
			d.CreateTables = append(d.CreateTables, &CreateTable{Table: ct})
			for _, idx := range t2.Indexes {
				d.CreateIndexes = append(d.CreateIndexes, &CreateIndex{Table: t2.Clone(), Index: idx.Clone()})
			}
			continue
		}
		if changes := tableChanges(t1, t2); len(changes) > 0 {
			d.AlterTables = append(d.AlterTables, &AlterTable{Table: t2.Clone(), Changes: changes})
		}
		indexDiff(d, t1, t2)
	}
	return d
}

// IntoSteps converts the diff to an ordered list of steps: index drops
// first, then table drops, creations and alterations, and index
// creations and renames last. Drops precede creations to avoid name
// collisions; indexes are created only after their table exists.
func (d *SchemaDiff) IntoSteps() []Step {
	var steps []Step
	for _, di := range d.DropIndexes {
		steps = append(steps, di)
	}
	for _, name := range d.DropTables {
		steps = append(steps, &DropTable{Name: name})
	}
	for _, ct := range d.CreateTables {
		steps = append(steps, ct)
	}
	for _, at := range d.AlterTables {
		if len(at.Changes) > 0 {
			steps = append(steps, at)
		}
	}
	for _, ci := range d.CreateIndexes {
		steps = append(steps, ci)
	}
	for _, ai := range d.AlterIndexes {
		steps = append(steps, ai)
	}
	return steps
}

// tableChanges compares two versions of a table column by column.
// Changes are ordered drops, then adds, then alters.
func tableChanges(from, to *schema.Table) TableChanges {
	var changes TableChanges
	for _, c1 := range from.Columns {
		if _, ok := to.Column(c1.Name); !ok {
			changes = append(changes, &DropColumn{Name: c1.Name})
		}
	}
	for _, c2 := range to.Columns {
		if _, ok := from.Column(c2.Name); !ok {
			changes = append(changes, &AddColumn{Column: c2.Clone()})
		}
	}
	for _, c1 := range from.Columns {
		c2, ok := to.Column(c1.Name)
		if !ok || columnsEqual(c1, c2) {
			continue
		}
		alter := &AlterColumn{Name: c1.Name, Column: c2.Clone()}
		if arityOnlyChange(c1, c2) {
			alter.Change = &ChangeArity{From: c1.Arity, To: c2.Arity}
		} else {
			alter.Change = &ReplaceColumn{}
		}
		changes = append(changes, alter)
	}
	return changes
}

// indexDiff matches the two tables' indexes by name. Same-name indexes
// with a different definition are rebuilt (drop + create); an index
// whose definition is unchanged but appears under a new name becomes a
// rename.
func indexDiff(d *SchemaDiff, from, to *schema.Table) {
	renamed := make(map[string]bool)
	for _, idx1 := range from.Indexes {
		idx2, ok := to.Index(idx1.Name)
		switch {
		case ok && indexesEqual(idx1, idx2):
		case ok:
			d.DropIndexes = append(d.DropIndexes, &DropIndex{Table: from.Name, Name: idx1.Name})
			d.CreateIndexes = append(d.CreateIndexes, &CreateIndex{Table: to.Clone(), Index: idx2.Clone()})
		default:
			if idx2, ok := renameTarget(idx1, from, to, renamed); ok {
				renamed[idx2.Name] = true
				d.AlterIndexes = append(d.AlterIndexes, &AlterIndex{Table: from.Name, OldName: idx1.Name, NewName: idx2.Name})
				continue
			}
			d.DropIndexes = append(d.DropIndexes, &DropIndex{Table: from.Name, Name: idx1.Name})
		}
	}
	for _, idx2 := range to.Indexes {
		if _, ok := from.Index(idx2.Name); ok || renamed[idx2.Name] {
			continue
		}
		d.CreateIndexes = append(d.CreateIndexes, &CreateIndex{Table: to.Clone(), Index: idx2.Clone()})
	}
}

// renameTarget looks for an index in the target table that holds the
// same definition as idx1 under a name that is new to the table.
func renameTarget(idx1 *schema.Index, from, to *schema.Table, renamed map[string]bool) (*schema.Index, bool) {
	for _, idx2 := range to.Indexes {
		if renamed[idx2.Name] {
			continue
		}
		if _, ok := from.Index(idx2.Name); ok {
			continue
		}
		if idx1.Kind == idx2.Kind && equalStrings(idx1.Columns, idx2.Columns) {
			return idx2, true
		}
	}
	return nil, false
}

func columnsEqual(c1, c2 *schema.Column) bool {
	return c1.Type == c2.Type && c1.Arity == c2.Arity && equalDefaults(c1, c2)
}

func arityOnlyChange(c1, c2 *schema.Column) bool {
	return c1.Type == c2.Type && equalDefaults(c1, c2) && c1.Arity != c2.Arity
}

func equalDefaults(c1, c2 *schema.Column) bool {
	if (c1.Default != nil) != (c2.Default != nil) {
		return false
	}
	return c1.Default == nil || *c1.Default == *c2.Default
}

func indexesEqual(i1, i2 *schema.Index) bool {
	return i1.Kind == i2.Kind && equalStrings(i1.Columns, i2.Columns)
}

func equalStrings(v1, v2 []string) bool {
	if len(v1) != len(v2) {
		return false
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			return false
		}
	}
	return true
}

func sortedNames(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
