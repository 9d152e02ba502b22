// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlspec

import (
	"testing"

	"github.com/stencildb/stencil/sql/migrate"
	"github.com/stencildb/stencil/sql/schema"

	"github.com/stretchr/testify/require"
)

func TestCalculateSchemaBlocks(t *testing.T) {
	doc := `
schema "app" {
  table "users" {
    column "id" {
      type = "Int"
    }
    column "email" {
      type = "String"
      null = true
    }
    column "active" {
      type    = "Boolean"
      default = true
    }
    primary_key {
      columns = ["id"]
    }
    index "users_email_key" {
      columns = ["email"]
      unique  = true
    }
  }
  table "posts" {
    column "id" {
      type = "Int"
    }
    column "author_id" {
      type = "Int"
    }
    primary_key {
      columns = ["id"]
    }
    foreign_key {
      columns     = ["author_id"]
      ref_table   = "users"
      ref_columns = ["id"]
      on_delete   = "CASCADE"
    }
  }
}
`
	calc := &Calculator{SchemaName: "app", Family: migrate.Postgres}
	s, err := calc.Calculate([]byte(doc))
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	users, ok := s.Table("users")
	require.True(t, ok)
	require.Equal(t, &schema.PrimaryKey{Columns: []string{"id"}}, users.PrimaryKey)
	id, ok := users.Column("id")
	require.True(t, ok)
	require.Equal(t, schema.ColumnType{Family: schema.FamilyInt, Raw: "integer"}, id.Type)
	require.Equal(t, schema.Required, id.Arity)
	email, ok := users.Column("email")
	require.True(t, ok)
	require.Equal(t, schema.Nullable, email.Arity)
	active, ok := users.Column("active")
	require.True(t, ok)
	require.NotNil(t, active.Default)
	require.Equal(t, "true", *active.Default)
	idx, ok := users.Index("users_email_key")
	require.True(t, ok)
	require.Equal(t, schema.Unique, idx.Kind)

	posts, ok := s.Table("posts")
	require.True(t, ok)
	fk, ok := posts.ForeignKeyForColumn("author_id")
	require.True(t, ok)
	require.Equal(t, "users", fk.RefTable)
	require.Equal(t, []string{"id"}, fk.RefColumns)
	require.Equal(t, schema.Cascade, fk.OnDelete)
}

func TestCalculateModels(t *testing.T) {
	doc := `
model "User" {
  field "id" {
    type = "Int"
    id   = true
  }
  field "email" {
    type   = "String"
    unique = true
  }
}

model "Post" {
  field "id" {
    type = "Int"
    id   = true
  }
  field "title" {
    type    = "String"
    default = "untitled"
  }
  field "author" {
    references = "User"
    optional   = true
    on_delete  = "SET NULL"
  }
}
`
	calc := &Calculator{SchemaName: "app", Family: migrate.Postgres, Pluralize: true}
	s, err := calc.Calculate(doc)
	require.NoError(t, err)

	users, ok := s.Table("users")
	require.True(t, ok)
	require.Equal(t, &schema.PrimaryKey{Columns: []string{"id"}}, users.PrimaryKey)
	idx, ok := users.Index("users_email_key")
	require.True(t, ok)
	require.Equal(t, schema.Unique, idx.Kind)

	posts, ok := s.Table("posts")
	require.True(t, ok)
	title, ok := posts.Column("title")
	require.True(t, ok)
	require.NotNil(t, title.Default)
	require.Equal(t, "untitled", *title.Default)
	author, ok := posts.Column("author")
	require.True(t, ok)
	require.Equal(t, schema.Nullable, author.Arity)
	require.Equal(t, schema.FamilyInt, author.Type.Family)
	fk, ok := posts.ForeignKeyForColumn("author")
	require.True(t, ok)
	require.Equal(t, "users", fk.RefTable)
	require.Equal(t, []string{"id"}, fk.RefColumns)
	require.Equal(t, schema.SetNull, fk.OnDelete)
}

func TestCalculateErrors(t *testing.T) {
	t.Run("UnknownFamily", func(t *testing.T) {
		calc := &Calculator{SchemaName: "app", Family: migrate.Sqlite}
		_, err := calc.Calculate(`
schema "app" {
  table "t" {
    column "c" {
      type = "Varchar"
    }
  }
}
`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown type family")
	})
	t.Run("MissingReference", func(t *testing.T) {
		calc := &Calculator{SchemaName: "app", Family: migrate.Sqlite}
		_, err := calc.Calculate(`
model "Post" {
  field "id" {
    type = "Int"
    id   = true
  }
  field "author" {
    references = "User"
  }
}
`)
		require.Error(t, err)
		require.Contains(t, err.Error(), `referenced model "User" not found`)
	})
	t.Run("BadSyntax", func(t *testing.T) {
		_, err := Parse([]byte(`table "t" {`), "bad.hcl")
		require.Error(t, err)
	})
}

func TestCalculateEndToEnd(t *testing.T) {
	calc := &Calculator{SchemaName: "main", Family: migrate.Sqlite}
	target, err := calc.Calculate(`
schema "main" {
  table "notes" {
    column "id" {
      type = "Int"
    }
    column "body" {
      type = "String"
      null = true
    }
    primary_key {
      columns = ["id"]
    }
  }
}
`)
	require.NoError(t, err)
	m, err := migrate.Infer(schema.New("main"), target, "main", migrate.Sqlite)
	require.NoError(t, err)
	require.Len(t, m.CorrectedSteps, 1)
	want := "CREATE TABLE \"main\".\"notes\" (\n" +
		"  \"id\" INTEGER PRIMARY KEY,\n" +
		"  \"body\" TEXT\n" +
		");"
	require.Equal(t, want, migrate.RenderStep(m.CorrectedSteps[0], migrate.Sqlite, "main"))
}
