// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"testing"

	"github.com/stencildb/stencil/sql/schema"

	"github.com/stretchr/testify/require"
)

func userPosts() *schema.Schema {
	return schema.New("main").AddTables(
		schema.NewTable("posts").
			AddColumns(
				schema.NewIntColumn("id", "INTEGER"),
				schema.NewStringColumn("title", "TEXT"),
				schema.NewNullIntColumn("author_id", "INTEGER"),
			).
			SetPrimaryKey("id").
			AddIndexes(schema.NewIndex("posts_author", "author_id")).
			AddForeignKeys(schema.NewForeignKey("author_id").References("users", "id")),
		schema.NewTable("users").
			AddColumns(
				schema.NewIntColumn("id", "INTEGER"),
				schema.NewNullStringColumn("email", "TEXT"),
			).
			SetPrimaryKey("id").
			AddIndexes(schema.NewUniqueIndex("users_email_key", "email")),
	)
}

func TestDiffSelfIsEmpty(t *testing.T) {
	s := userPosts()
	d := Diff(s, s)
	require.True(t, d.Empty())
	require.Empty(t, d.IntoSteps())
}

func TestDiffTables(t *testing.T) {
	from := schema.New("main").AddTables(
		schema.NewTable("b").AddColumns(schema.NewIntColumn("id", "INTEGER")),
		schema.NewTable("a").AddColumns(schema.NewIntColumn("id", "INTEGER")),
	)
	to := schema.New("main").AddTables(
		schema.NewTable("d").AddColumns(schema.NewIntColumn("id", "INTEGER")),
		schema.NewTable("c").AddColumns(schema.NewIntColumn("id", "INTEGER")),
	)
	d := Diff(from, to)
	require.Equal(t, []string{"a", "b"}, d.DropTables)
	require.Len(t, d.CreateTables, 2)
	// Created tables are emitted sorted by name.
	require.Equal(t, "c", d.CreateTables[0].Table.Name)
	require.Equal(t, "d", d.CreateTables[1].Table.Name)
}

func TestDiffColumnChanges(t *testing.T) {
	from := schema.New("main").AddTables(
		schema.NewTable("users").
			AddColumns(
				schema.NewIntColumn("id", "INTEGER"),
				schema.NewStringColumn("nick", "TEXT"),
				schema.NewNullStringColumn("bio", "TEXT"),
				schema.NewIntColumn("age", "INTEGER"),
			).
			SetPrimaryKey("id"),
	)
	to := schema.New("main").AddTables(
		schema.NewTable("users").
			AddColumns(
				schema.NewIntColumn("id", "INTEGER"),
				schema.NewNullStringColumn("bio", "TEXT").SetArity(schema.Required),
				schema.NewStringColumn("age", "TEXT"),
				schema.NewTimeColumn("created_at", "DATE"),
			).
			SetPrimaryKey("id"),
	)
	d := Diff(from, to)
	require.Len(t, d.AlterTables, 1)
	changes := d.AlterTables[0].Changes
	require.Equal(t, TableChanges{
		&DropColumn{Name: "nick"},
		&AddColumn{Column: schema.NewTimeColumn("created_at", "DATE")},
		&AlterColumn{
			Name:   "bio",
			Column: schema.NewStringColumn("bio", "TEXT"),
			Change: &ChangeArity{From: schema.Nullable, To: schema.Required},
		},
		&AlterColumn{
			Name:   "age",
			Column: schema.NewStringColumn("age", "TEXT"),
			Change: &ReplaceColumn{},
		},
	}, changes)
}

func TestDiffIndexes(t *testing.T) {
	t.Run("RebuildOnDefinitionChange", func(t *testing.T) {
		from := schema.New("main").AddTables(
			schema.NewTable("users").
				AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullStringColumn("email", "TEXT")).
				AddIndexes(schema.NewIndex("users_email", "email")),
		)
		to := schema.New("main").AddTables(
			schema.NewTable("users").
				AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullStringColumn("email", "TEXT")).
				AddIndexes(schema.NewUniqueIndex("users_email", "email")),
		)
		d := Diff(from, to)
		require.Len(t, d.DropIndexes, 1)
		require.Len(t, d.CreateIndexes, 1)
		require.Empty(t, d.AlterIndexes)
		require.Equal(t, "users_email", d.DropIndexes[0].Name)
		require.Equal(t, schema.Unique, d.CreateIndexes[0].Index.Kind)
	})
	t.Run("Rename", func(t *testing.T) {
		from := schema.New("main").AddTables(
			schema.NewTable("users").
				AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullIntColumn("a", "INTEGER")).
				AddIndexes(schema.NewIndex("ix_a", "a")),
		)
		to := schema.New("main").AddTables(
			schema.NewTable("users").
				AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullIntColumn("a", "INTEGER")).
				AddIndexes(schema.NewIndex("ix_new", "a")),
		)
		d := Diff(from, to)
		require.Empty(t, d.DropIndexes)
		require.Empty(t, d.CreateIndexes)
		require.Equal(t, []*AlterIndex{{Table: "users", OldName: "ix_a", NewName: "ix_new"}}, d.AlterIndexes)
	})
	t.Run("NewTableIndexes", func(t *testing.T) {
		d := Diff(schema.New("main"), userPosts())
		require.Len(t, d.CreateIndexes, 2)
	})
}

func TestIntoStepsOrder(t *testing.T) {
	from := schema.New("main").AddTables(
		schema.NewTable("old").AddColumns(schema.NewIntColumn("id", "INTEGER")),
		schema.NewTable("users").
			AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullStringColumn("email", "TEXT")).
			AddIndexes(schema.NewIndex("users_email", "email")),
	)
	to := schema.New("main").AddTables(
		schema.NewTable("users").
			AddColumns(schema.NewIntColumn("id", "INTEGER"), schema.NewNullStringColumn("mail", "TEXT")).
			AddIndexes(schema.NewUniqueIndex("users_email", "mail")),
		schema.NewTable("posts").AddColumns(schema.NewIntColumn("id", "INTEGER")),
	)
	steps := Diff(from, to).IntoSteps()
	kinds := make([]string, len(steps))
	for i, s := range steps {
		switch s.(type) {
		case *DropIndex:
			kinds[i] = "DropIndex"
		case *DropTable:
			kinds[i] = "DropTable"
		case *CreateTable:
			kinds[i] = "CreateTable"
		case *AlterTable:
			kinds[i] = "AlterTable"
		case *CreateIndex:
			kinds[i] = "CreateIndex"
		case *AlterIndex:
			kinds[i] = "AlterIndex"
		}
	}
	require.Equal(t, []string{"DropIndex", "DropTable", "CreateTable", "AlterTable", "CreateIndex"}, kinds)
}

func TestDiffDoesNotMutateInputs(t *testing.T) {
	from := schema.New("main")
	to := userPosts()
	d := Diff(from, to)
	d.CreateTables[0].Table.Columns = nil
	tt, ok := to.Table("posts")
	require.True(t, ok)
	require.Len(t, tt.Columns, 3)
}
