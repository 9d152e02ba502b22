// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqlclient opens database connections for the supported
// dialects and adapts them to the schema.ExecQuerier contract consumed
// by the step applier.
package sqlclient

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stencildb/stencil/sql/migrate"
)

// A Client is an open database handle for one dialect.
type Client struct {
	Family migrate.SqlFamily
	DB     *sql.DB
}

// Open opens a connection to the database pointed by the DSN using the
// registered driver of the given dialect.
func Open(family migrate.SqlFamily, dsn string) (*Client, error) {
	return OpenDriver(driverName(family), family, dsn)
}

// OpenDriver is like Open, but uses an explicit driver name. It allows
// connecting through alternative registrations such as the Cloud SQL
// connectors.
func OpenDriver(driver string, family migrate.SqlFamily, dsn string) (*Client, error) {
	if driver == "" {
		return nil, fmt.Errorf("sqlclient: unsupported sql family %q", family)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlclient: open %s: %w", driver, err)
	}
	return &Client{Family: family, DB: db}, nil
}

func driverName(family migrate.SqlFamily) string {
	switch family {
	case migrate.Sqlite:
		return "sqlite3"
	case migrate.Mysql:
		return "mysql"
	case migrate.Postgres:
		return "postgres"
	default:
		return ""
	}
}

// QueryContext implements schema.ExecQuerier.
func (c *Client) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// ExecContext implements schema.ExecQuerier.
func (c *Client) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// Close closes the underlying database handle.
func (c *Client) Close() error {
	return c.DB.Close()
}
