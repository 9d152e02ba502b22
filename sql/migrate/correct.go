// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"fmt"
	"strings"

	"github.com/stencildb/stencil/sql/internal/mysqlversion"
	"github.com/stencildb/stencil/sql/schema"
)

type (
	// correctOptions holds the per-dialect knobs of the correction
	// pipeline.
	correctOptions struct {
		mysqlVersion mysqlversion.V
	}

	// A CorrectOption configures the correction pipeline.
	CorrectOption func(*correctOptions)
)

// WithMySQLVersion sets the MySQL server version. Servers that support
// DEFAULT on TEXT columns (8.0.13+, MariaDB 10.2.1+) skip the
// required-text rewrite. An unknown version keeps the rewrite on.
func WithMySQLVersion(v string) CorrectOption {
	return func(o *correctOptions) {
		o.mysqlVersion = mysqlversion.V(v)
	}
}

// Correct rewrites the diff's naive step sequence into one the target
// dialect accepts, in dependency-safe order, without changing the
// resulting logical schema. The diff entries are pruned in place; pass
// a fresh diff.
func Correct(d *SchemaDiff, from, to *schema.Schema, schemaName string, family SqlFamily, opts ...CorrectOption) ([]Step, error) {
	var o correctOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch family {
	case Sqlite:
		return fixSqlite(d.IntoSteps(), from, to, schemaName)
	case Mysql:
		steps := delayForeignKeys(d)
		steps, err := fixPrimaryKeyTypeChange(from, to, steps)
		if err != nil {
			return nil, err
		}
		if o.mysqlVersion.SupportsTextDefault() {
			return steps, nil
		}
		return fixMysqlRequiredText(steps, schemaName), nil
	case Postgres:
		steps := delayForeignKeys(d)
		return fixPrimaryKeyTypeChange(from, to, steps)
	default:
		return nil, fmt.Errorf("migrate: unknown sql family %q", family)
	}
}

// delayForeignKeys caters for the case that a created table holds a
// foreign key to a table that is itself being created, as in the cycle
// A -> B, B -> A. The foreign-key columns are removed from the
// CreateTable and added back by AlterTable steps that run after all
// tables exist. Columns that are part of the created table's primary
// key are exempt, as are implicit relation tables (name starting with
// "_", a naming-convention heuristic kept for compatibility).
//
// Known limitation: a delayed Required column makes the later
// AddColumn fail on engines that cannot add a NOT NULL column to a
// non-empty table, which is why SQLite does not run this pass.
func delayForeignKeys(d *SchemaDiff) []Step {
	created := make(map[string]bool, len(d.CreateTables))
	for _, ct := range d.CreateTables {
		created[ct.Table.Name] = true
	}
	var extra []*AlterTable
	for _, ct := range d.CreateTables {
		t := ct.Table
		var delayed []*schema.Column
		for _, c := range t.Columns {
			fk, ok := t.ForeignKeyForColumn(c.Name)
			if !ok {
				continue
			}
			if created[fk.RefTable] && !t.IsPartOfPrimaryKey(c.Name) && !strings.HasPrefix(t.Name, "_") {
				delayed = append(delayed, c)
			}
		}
		if len(delayed) == 0 {
			continue
		}
		alter := &AlterTable{Table: t.Clone()}
		kept := t.Columns[:0]
		for _, c := range t.Columns {
			if !containsColumn(delayed, c) {
				kept = append(kept, c)
			}
		}
		t.Columns = kept
		for _, c := range delayed {
			alter.Changes = append(alter.Changes, &AddColumn{Column: c})
		}
		extra = append(extra, alter)
	}
	d.AlterTables = append(d.AlterTables, extra...)
	return d.IntoSteps()
}

// fixPrimaryKeyTypeChange scans for a type-family change on a column of
// the current primary key. Engines cannot alter a key column's type in
// place, so the incremental plan is abandoned: all current tables
// except the migration bookkeeping table are dropped, and the target
// schema is created from scratch with foreign-key delaying applied.
// Data loss is accepted here.
//
// Detection uses the current column name on the current table; a column
// renamed and retyped in the same migration is not detected.
func fixPrimaryKeyTypeChange(from, to *schema.Schema, steps []Step) ([]Step, error) {
	changed, err := hasPrimaryKeyTypeChange(from, steps)
	if err != nil {
		return nil, err
	}
	if !changed {
		return steps, nil
	}
	var names []string
	for _, t := range from.Tables {
		if t.Name != migrationsTable {
			names = append(names, t.Name)
		}
	}
	radical := []Step{&DropTables{Names: names}}
	return append(radical, delayForeignKeys(Diff(schema.New(from.Name), to))...), nil
}

func hasPrimaryKeyTypeChange(from *schema.Schema, steps []Step) (bool, error) {
	for _, step := range steps {
		alter, ok := step.(*AlterTable)
		if !ok {
			continue
		}
		current, ok := from.Table(alter.Table.Name)
		if !ok {
			continue
		}
		for _, change := range alter.Changes {
			ac, ok := change.(*AlterColumn)
			if !ok {
				continue
			}
			cc, ok := current.Column(ac.Name)
			if !ok {
				return false, fmt.Errorf("migrate: column %q not found in table %q", ac.Name, current.Name)
			}
			if current.IsPartOfPrimaryKey(ac.Name) && cc.Type.Family != ac.Column.Type.Family {
				return true, nil
			}
		}
	}
	return false, nil
}

// fixSqlite walks the step list and replaces every AlterTable that
// SQLite cannot execute in place, and every AlterIndex, with a
// copy-rename rebuild of the table. CreateIndex steps against a rebuilt
// table are suppressed: the rebuild already created the target indexes.
func fixSqlite(steps []Step, from, to *schema.Schema, schemaName string) ([]Step, error) {
	var result []Step
	rebuilt := make(map[string]bool)
	for _, step := range steps {
		switch step := step.(type) {
		case *AlterTable:
			if !sqliteAlterable(step) {
				fix, err := sqliteRebuild(from, to, step.Table.Name, schemaName)
				if err != nil {
					return nil, err
				}
				result = append(result, fix...)
				rebuilt[step.Table.Name] = true
				continue
			}
			result = append(result, step)
		case *CreateIndex:
			if rebuilt[step.Table.Name] {
				// The rebuild created the index already.
				continue
			}
			result = append(result, step)
		case *AlterIndex:
			fix, err := sqliteRebuild(from, to, step.Table, schemaName)
			if err != nil {
				return nil, err
			}
			result = append(result, fix...)
			rebuilt[step.Table] = true
		default:
			result = append(result, step)
		}
	}
	return result, nil
}

// sqliteAlterable reports if the changes can run as plain ALTER TABLE
// statements. SQLite cannot add a required column without a rebuild,
// drop a column, or alter a column.
func sqliteAlterable(alter *AlterTable) bool {
	for _, change := range alter.Changes {
		switch change := change.(type) {
		case *AddColumn:
			if change.Column.Arity == schema.Required {
				return false
			}
		case *DropColumn, *AlterColumn:
			return false
		}
	}
	return true
}

// sqliteRebuild implements the copy-rename procedure from the "Making
// Other Kinds Of Table Schema Changes" section of the SQLite ALTER
// TABLE documentation: create the target table under a temporary name,
// copy the shared columns, drop the original, rename, and re-create the
// target indexes, bracketed by foreign_keys pragmas and followed by a
// foreign_key_check.
func sqliteRebuild(from, to *schema.Schema, tableName, schemaName string) ([]Step, error) {
	current, ok := from.Table(tableName)
	if !ok {
		return nil, fmt.Errorf("migrate: table %q not found in current schema", tableName)
	}
	next, ok := to.Table(tableName)
	if !ok {
		return nil, fmt.Errorf("migrate: table %q not found in target schema", tableName)
	}
	temp := next.Clone()
	temp.Name = "new_" + next.Name
	var cols []string
	for _, c := range next.Columns {
		if _, ok := current.Column(c.Name); ok {
			cols = append(cols, `"`+c.Name+`"`)
		}
	}
	list := strings.Join(cols, ",")
	steps := []Step{
		&RawSql{SQL: "PRAGMA foreign_keys=OFF;"},
		&CreateTable{Table: temp},
		&RawSql{SQL: fmt.Sprintf(`INSERT INTO "%s" (%s) SELECT %s FROM "%s"`, temp.Name, list, list, next.Name)},
		&DropTable{Name: current.Name},
		&RenameTable{Old: temp.Name, New: next.Name},
	}
	for _, idx := range next.Indexes {
		steps = append(steps, &CreateIndex{Table: next.Clone(), Index: idx.Clone()})
	}
	steps = append(steps,
		&RawSql{SQL: fmt.Sprintf(`PRAGMA "%s".foreign_key_check;`, schemaName)},
		&RawSql{SQL: "PRAGMA foreign_keys=ON;"},
	)
	return steps, nil
}

// fixMysqlRequiredText splits every added required string column into
// three steps, since the MySQL versions the engine supports do not
// permit DEFAULT on TEXT columns: add the column as nullable, backfill
// the default with a raw UPDATE, then switch the column to its required
// form. Remaining changes of the original AlterTable trail the
// expansions.
func fixMysqlRequiredText(steps []Step, schemaName string) []Step {
	fixed := make([]Step, 0, len(steps))
	for _, step := range steps {
		alter, ok := step.(*AlterTable)
		if !ok {
			fixed = append(fixed, step)
			continue
		}
		var (
			residual TableChanges
			expanded []*schema.Column
		)
		for _, change := range alter.Changes {
			if add, ok := change.(*AddColumn); ok && add.Column.Type.Family == schema.FamilyString && add.Column.Arity == schema.Required {
				expanded = append(expanded, add.Column)
				continue
			}
			residual = append(residual, change)
		}
		for _, column := range expanded {
			nullable := column.Clone()
			nullable.Arity = schema.Nullable
			fixed = append(fixed, &AlterTable{
				Table:   alter.Table,
				Changes: TableChanges{&AddColumn{Column: nullable}},
			})
			if column.Default != nil {
				fixed = append(fixed, &RawSql{
					SQL: fmt.Sprintf("UPDATE `%s`.`%s` SET `%s` = '%s'", schemaName, alter.Table.Name, column.Name, *column.Default),
				})
			}
			fixed = append(fixed, &AlterTable{
				Table: alter.Table,
				Changes: TableChanges{&AlterColumn{
					Name:   column.Name,
					Column: column,
					Change: &ChangeArity{From: schema.Nullable, To: schema.Required},
				}},
			})
		}
		if len(residual) > 0 {
			fixed = append(fixed, &AlterTable{Table: alter.Table, Changes: residual})
		}
	}
	return fixed
}

func containsColumn(columns []*schema.Column, c *schema.Column) bool {
	for _, cc := range columns {
		if cc == c {
			return true
		}
	}
	return false
}
