// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookups(t *testing.T) {
	s := New("main").AddTables(
		NewTable("users").
			AddColumns(NewIntColumn("id", "INTEGER"), NewNullStringColumn("email", "TEXT")).
			SetPrimaryKey("id").
			AddIndexes(NewUniqueIndex("users_email_key", "email")).
			AddForeignKeys(NewForeignKey("org_id").References("orgs", "id")),
	)
	tt, ok := s.Table("users")
	require.True(t, ok)
	_, ok = s.Table("posts")
	require.False(t, ok)

	c, ok := tt.Column("email")
	require.True(t, ok)
	require.Equal(t, Nullable, c.Arity)
	_, ok = tt.Column("missing")
	require.False(t, ok)

	_, ok = tt.Index("users_email_key")
	require.True(t, ok)

	fk, ok := tt.ForeignKeyForColumn("org_id")
	require.True(t, ok)
	require.Equal(t, "orgs", fk.RefTable)
	_, ok = tt.ForeignKeyForColumn("id")
	require.False(t, ok)

	require.True(t, tt.IsPartOfPrimaryKey("id"))
	require.False(t, tt.IsPartOfPrimaryKey("email"))
}

func TestClone(t *testing.T) {
	s := New("main").AddTables(
		NewTable("users").
			AddColumns(NewIntColumn("id", "INTEGER"), NewNullStringColumn("email", "TEXT").SetDefault("x")).
			SetPrimaryKey("id").
			AddIndexes(NewIndex("ix", "email")).
			AddForeignKeys(NewForeignKey("org_id").References("orgs", "id")),
	)
	c := s.Clone()
	require.Equal(t, s, c)

	// Mutating the clone leaves the original untouched.
	ct, _ := c.Table("users")
	ct.Name = "members"
	ct.Columns[0].Name = "uid"
	*ct.Columns[1].Default = "y"
	ct.PrimaryKey.Columns[0] = "uid"
	ct.Indexes[0].Columns[0] = "uid"
	ct.ForeignKeys[0].RefColumns[0] = "uid"

	tt, ok := s.Table("users")
	require.True(t, ok)
	require.Equal(t, "id", tt.Columns[0].Name)
	require.Equal(t, "x", *tt.Columns[1].Default)
	require.Equal(t, []string{"id"}, tt.PrimaryKey.Columns)
	require.Equal(t, []string{"email"}, tt.Indexes[0].Columns)
	require.Equal(t, []string{"id"}, tt.ForeignKeys[0].RefColumns)
}

func TestCloneNil(t *testing.T) {
	var (
		s *Schema
		p *PrimaryKey
	)
	require.Nil(t, s.Clone())
	require.Nil(t, p.Clone())
}
