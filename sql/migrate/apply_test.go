// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stencildb/stencil/sql/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func applierMigration(t *testing.T) *Migration {
	t.Helper()
	current := schema.New("public").AddTables(
		schema.NewTable("T").AddColumns(schema.NewIntColumn("id", "integer")).SetPrimaryKey("id"),
	)
	target := schema.New("public").AddTables(
		schema.NewTable("T").
			AddColumns(schema.NewIntColumn("id", "integer"), schema.NewNullStringColumn("b", "text")).
			SetPrimaryKey("id"),
	)
	m, err := Infer(current, target, "public", Postgres)
	require.NoError(t, err)
	return m
}

func TestApplyStep(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	m := applierMigration(t)
	a := &StepApplier{Family: Postgres, SchemaName: "public", Conn: db}

	mock.ExpectExec(`ALTER TABLE "public"."T" ADD COLUMN "b" text;`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	more, err := a.ApplyStep(context.Background(), m, 0)
	require.NoError(t, err)
	require.False(t, more)

	// Probing past the end executes nothing.
	more, err = a.ApplyStep(context.Background(), m, 1)
	require.NoError(t, err)
	require.False(t, more)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnapplyStep(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	m := applierMigration(t)
	a := &StepApplier{Family: Postgres, SchemaName: "public", Conn: db}

	mock.ExpectExec(`ALTER TABLE "public"."T" DROP COLUMN "b";`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	more, err := a.UnapplyStep(context.Background(), m, 0)
	require.NoError(t, err)
	require.False(t, more)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStepError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	m := applierMigration(t)
	a := &StepApplier{Family: Postgres, SchemaName: "public", Conn: db}

	dbErr := errors.New(`pq: relation "T" does not exist`)
	mock.ExpectExec(`ALTER TABLE "public"."T" ADD COLUMN "b" text;`).WillReturnError(dbErr)
	_, err = a.ApplyStep(context.Background(), m, 0)
	require.ErrorIs(t, err, dbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderStepsPretty(t *testing.T) {
	m := applierMigration(t)
	pretty, err := RenderStepsPretty(m, Postgres, "public")
	require.NoError(t, err)
	require.Len(t, pretty, 1)
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(pretty[0], &obj))
	require.Contains(t, obj, "AlterTable")
	var raw string
	require.NoError(t, json.Unmarshal(obj["raw"], &raw))
	require.Equal(t, `ALTER TABLE "public"."T" ADD COLUMN "b" text;`, raw)
}
