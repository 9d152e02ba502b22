// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package schema provides the in-memory representation of database
// schemas: tables, columns, indexes, primary and foreign keys. A Schema
// is a snapshot, either introspected from a live database or calculated
// from a datamodel, and is treated as an immutable value by the rest of
// the engine.
package schema

import (
	"context"
	"database/sql"
)

type (
	// A Schema describes a database schema (i.e. named database).
	Schema struct {
		Name   string   `json:"name"`
		Tables []*Table `json:"tables"`
	}

	// A Table represents a table definition. The order of the columns
	// is significant; the order of indexes and foreign keys is kept
	// for deterministic output.
	Table struct {
		Name        string        `json:"name"`
		Columns     []*Column     `json:"columns"`
		Indexes     []*Index      `json:"indexes,omitempty"`
		PrimaryKey  *PrimaryKey   `json:"primary_key,omitempty"`
		ForeignKeys []*ForeignKey `json:"foreign_keys,omitempty"`
	}

	// A Column represents a column definition.
	Column struct {
		Name  string     `json:"name"`
		Type  ColumnType `json:"type"`
		Arity Arity      `json:"arity"`
		// Default holds the default value as a rendered literal,
		// without dialect quoting.
		Default *string `json:"default,omitempty"`
	}

	// ColumnType pairs the dialect-neutral type family with the raw
	// dialect-specific type string.
	ColumnType struct {
		Family Family `json:"family"`
		Raw    string `json:"raw"`
	}

	// An Index represents an index definition.
	Index struct {
		Name    string    `json:"name"`
		Columns []string  `json:"columns"`
		Kind    IndexKind `json:"kind"`
	}

	// A ForeignKey represents a foreign-key constraint owned by a table.
	ForeignKey struct {
		Columns    []string        `json:"columns"`
		RefTable   string          `json:"referenced_table"`
		RefColumns []string        `json:"referenced_columns"`
		OnDelete   ReferenceOption `json:"on_delete,omitempty"`
	}

	// A PrimaryKey is an ordered list of column names.
	PrimaryKey struct {
		Columns []string `json:"columns"`
	}
)

// A Family groups raw column types into dialect-neutral classes.
type Family string

// List of supported type families.
const (
	FamilyString   Family = "String"
	FamilyInt      Family = "Int"
	FamilyFloat    Family = "Float"
	FamilyBoolean  Family = "Boolean"
	FamilyDateTime Family = "DateTime"
	FamilyEnum     Family = "Enum"
	FamilyJson     Family = "Json"
	FamilyBinary   Family = "Binary"
	FamilyUuid     Family = "Uuid"
)

// Arity describes a column's nullability/multiplicity.
type Arity string

// List of supported arities.
const (
	Required Arity = "Required"
	Nullable Arity = "Nullable"
	List     Arity = "List"
)

// IndexKind describes the kind of an index.
type IndexKind string

// List of supported index kinds.
const (
	Unique IndexKind = "Unique"
	Normal IndexKind = "Normal"
)

// ReferenceOption for constraint actions.
type ReferenceOption string

// Reference options (actions) specified by the ON DELETE
// subclause of the FOREIGN KEY clause.
const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

// Table returns the first table that matched the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Column returns the first column that matched the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Index returns the first index that matched the given name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, i := range t.Indexes {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

// ForeignKeyForColumn returns the first foreign key that
// constrains the given column.
func (t *Table) ForeignKeyForColumn(name string) (*ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if c == name {
				return fk, true
			}
		}
	}
	return nil, false
}

// IsPartOfPrimaryKey reports if the given column is one
// of the table's primary-key columns.
func (t *Table) IsPartOfPrimaryKey(name string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := &Schema{Name: s.Name}
	for _, t := range s.Tables {
		c.Tables = append(c.Tables, t.Clone())
	}
	return c
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{Name: t.Name, PrimaryKey: t.PrimaryKey.Clone()}
	for _, col := range t.Columns {
		c.Columns = append(c.Columns, col.Clone())
	}
	for _, idx := range t.Indexes {
		c.Indexes = append(c.Indexes, idx.Clone())
	}
	for _, fk := range t.ForeignKeys {
		c.ForeignKeys = append(c.ForeignKeys, fk.Clone())
	}
	return c
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	if c == nil {
		return nil
	}
	cc := *c
	if c.Default != nil {
		v := *c.Default
		cc.Default = &v
	}
	return &cc
}

// Clone returns a deep copy of the index.
func (i *Index) Clone() *Index {
	if i == nil {
		return nil
	}
	c := *i
	c.Columns = append([]string(nil), i.Columns...)
	return &c
}

// Clone returns a deep copy of the foreign key.
func (f *ForeignKey) Clone() *ForeignKey {
	if f == nil {
		return nil
	}
	c := *f
	c.Columns = append([]string(nil), f.Columns...)
	c.RefColumns = append([]string(nil), f.RefColumns...)
	return &c
}

// Clone returns a deep copy of the primary key.
func (p *PrimaryKey) Clone() *PrimaryKey {
	if p == nil {
		return nil
	}
	return &PrimaryKey{Columns: append([]string(nil), p.Columns...)}
}

// ExecQuerier wraps the two standard sql.DB methods used by
// the step applier and the connection clients.
type ExecQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
