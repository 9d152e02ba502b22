// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"fmt"
	"strings"

	"github.com/stencildb/stencil/sql/internal/sqlx"
	"github.com/stencildb/stencil/sql/schema"
)

// RenderStep emits the SQL statement for a single step in the given
// dialect. Rendering is stateless, pure and total for well-formed
// steps; an AlterIndex on SQLite panics, as the corrector must have
// replaced it with a table rebuild.
func RenderStep(step Step, family SqlFamily, schemaName string) string {
	switch step := step.(type) {
	case *CreateTable:
		return renderCreateTable(step.Table, family, schemaName)
	case *DropTable:
		return fmt.Sprintf("DROP TABLE %s;", quoteWithSchema(family, schemaName, step.Name))
	case *DropTables:
		names := make([]string, len(step.Names))
		for i, n := range step.Names {
			names[i] = quoteWithSchema(family, schemaName, n)
		}
		return fmt.Sprintf("DROP TABLE %s;", strings.Join(names, ","))
	case *RenameTable:
		to := quoteWithSchema(family, schemaName, step.New)
		if family == Sqlite {
			to = quote(family, step.New)
		}
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", quoteWithSchema(family, schemaName, step.Old), to)
	case *AlterTable:
		return renderAlterTable(step, family, schemaName)
	case *CreateIndex:
		return renderCreateIndex(step, family, schemaName)
	case *DropIndex:
		if family == Mysql {
			return fmt.Sprintf("DROP INDEX %s ON %s", quote(family, step.Name), quoteWithSchema(family, schemaName, step.Table))
		}
		return fmt.Sprintf("DROP INDEX %s", quoteWithSchema(family, schemaName, step.Name))
	case *AlterIndex:
		switch family {
		case Mysql:
			return fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s",
				quoteWithSchema(family, schemaName, step.Table), quote(family, step.OldName), quote(family, step.NewName))
		case Postgres:
			return fmt.Sprintf("ALTER INDEX %s RENAME TO %s",
				quoteWithSchema(family, schemaName, step.OldName), quote(family, step.NewName))
		default:
			panic("migrate: ALTER INDEX is unsupported on sqlite; the corrector must rebuild the table")
		}
	case *RawSql:
		return step.SQL
	default:
		panic(fmt.Sprintf("migrate: unexpected step type %T", step))
	}
}

func renderCreateTable(t *schema.Table, family SqlFamily, schemaName string) string {
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		lines = append(lines, "  "+renderColumn(t, c, family))
	}
	// Dialects may inline a single-column primary key on its column
	// definition; append the PRIMARY KEY line only when none did.
	if pk := t.PrimaryKey; pk != nil && len(pk.Columns) > 0 && !strings.Contains(strings.Join(lines, ","), "PRIMARY KEY") {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pk.Columns, ", ")))
	}
	var suffix string
	if family == Mysql {
		suffix = "\nDEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s;", quoteWithSchema(family, schemaName, t.Name), strings.Join(lines, ",\n"), suffix)
}

func renderAlterTable(alter *AlterTable, family SqlFamily, schemaName string) string {
	var lines []string
	for _, change := range alter.Changes {
		switch change := change.(type) {
		case *AddColumn:
			lines = append(lines, "ADD COLUMN "+renderColumn(alter.Table, change.Column, family))
		case *DropColumn:
			lines = append(lines, "DROP COLUMN "+quote(family, change.Name))
		case *AlterColumn:
			switch kind := change.Change.(type) {
			case *ChangeArity:
				lines = renderChangeArity(lines, alter.Table, change, kind, family)
			default:
				lines = renderDropAndAdd(lines, alter.Table, change, family)
			}
		}
	}
	return fmt.Sprintf("ALTER TABLE %s %s;", quoteWithSchema(family, schemaName, alter.Table.Name), strings.Join(lines, ",\n"))
}

func renderChangeArity(lines []string, t *schema.Table, change *AlterColumn, kind *ChangeArity, family SqlFamily) []string {
	switch {
	case family == Postgres && kind.From == schema.Nullable && kind.To == schema.Required:
		return append(lines, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", quote(family, change.Name)))
	case family == Postgres && kind.From == schema.Required && kind.To == schema.Nullable:
		return append(lines, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", quote(family, change.Name)))
	case family == Mysql && kind.From == schema.Nullable && kind.To == schema.Required:
		b := mysqlModify(change)
		b.P("NOT NULL")
		renderDefault(b, change.Column)
		return append(lines, b.String())
	case family == Mysql && kind.From == schema.Required && kind.To == schema.Nullable:
		b := mysqlModify(change)
		renderDefault(b, change.Column)
		return append(lines, b.String())
	default:
		return renderDropAndAdd(lines, t, change, family)
	}
}

func mysqlModify(change *AlterColumn) *sqlx.Builder {
	return build(Mysql).P("MODIFY", change.Name, change.Column.Type.Raw)
}

func renderDropAndAdd(lines []string, t *schema.Table, change *AlterColumn, family SqlFamily) []string {
	lines = append(lines, "DROP COLUMN "+quote(family, change.Name))
	return append(lines, "ADD COLUMN "+renderColumn(t, change.Column, family))
}

func renderCreateIndex(step *CreateIndex, family SqlFamily, schemaName string) string {
	create := "CREATE INDEX"
	if step.Index.Kind == schema.Unique {
		create = "CREATE UNIQUE INDEX"
	}
	// SQLite qualifies the index identifier with the schema and keeps
	// the table reference bare; the other dialects do the opposite.
	name := quote(family, step.Index.Name)
	table := quoteWithSchema(family, schemaName, step.Table.Name)
	if family == Sqlite {
		name = quoteWithSchema(family, schemaName, step.Index.Name)
		table = quote(family, step.Table.Name)
	}
	cols := make([]string, len(step.Index.Columns))
	for i, c := range step.Index.Columns {
		cols[i] = quote(family, c)
	}
	return fmt.Sprintf("%s %s ON %s(%s)", create, name, table, strings.Join(cols, ", "))
}

// renderColumn emits a column definition the way the dialect writes it
// inside CREATE TABLE and ADD COLUMN: identifier, raw type, nullability
// constraint, default, and the inline foreign-key reference when a
// single-column foreign key of the table constrains this column.
// Multi-column foreign keys are not rendered.
func renderColumn(t *schema.Table, c *schema.Column, family SqlFamily) string {
	b := build(family)
	b.Ident(c.Name).P(c.Type.Raw)
	inlinePK := family == Sqlite && t.PrimaryKey != nil && len(t.PrimaryKey.Columns) == 1 &&
		t.PrimaryKey.Columns[0] == c.Name && c.Type.Family == schema.FamilyInt
	switch {
	case inlinePK:
		b.P("PRIMARY KEY")
	case c.Arity == schema.Nullable:
		if family == Mysql {
			b.P("NULL")
		}
	default:
		// Required and List columns carry the NOT NULL constraint.
		b.P("NOT NULL")
	}
	renderDefault(b, c)
	if fk, ok := t.ForeignKeyForColumn(c.Name); ok && len(fk.Columns) == 1 {
		b.P("REFERENCES").Ident(fk.RefTable)
		b.Wrap(func(b *sqlx.Builder) {
			b.MapComma(fk.RefColumns, func(i int, b *sqlx.Builder) {
				b.Ident(fk.RefColumns[i])
			})
		})
		if fk.OnDelete != "" {
			b.P("ON DELETE", string(fk.OnDelete))
		}
	}
	return b.String()
}

func renderDefault(b *sqlx.Builder, c *schema.Column) {
	if c.Default == nil {
		return
	}
	v := *c.Default
	switch c.Type.Family {
	case schema.FamilyString, schema.FamilyDateTime, schema.FamilyEnum, schema.FamilyUuid:
		v = "'" + v + "'"
	}
	b.P("DEFAULT", v)
}

func build(family SqlFamily) *sqlx.Builder {
	q := quoteChar(family)
	return &sqlx.Builder{QuoteOpening: q, QuoteClosing: q}
}

func quoteChar(family SqlFamily) byte {
	if family == Mysql {
		return '`'
	}
	return '"'
}

func quote(family SqlFamily, ident string) string {
	q := string(quoteChar(family))
	return q + ident + q
}

func quoteWithSchema(family SqlFamily, schemaName, ident string) string {
	if schemaName == "" {
		return quote(family, ident)
	}
	return quote(family, schemaName) + "." + quote(family, ident)
}
