// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

// The methods and functions below provide a DSL for creating schema
// snapshots programmatically. They are used mainly by tests and by the
// datamodel calculator.

// New creates a new Schema.
func New(name string) *Schema {
	return &Schema{Name: name}
}

// AddTables appends the given tables to the schema.
func (s *Schema) AddTables(tables ...*Table) *Schema {
	s.Tables = append(s.Tables, tables...)
	return s
}

// NewTable creates a new Table.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumns appends the given columns to the table.
func (t *Table) AddColumns(columns ...*Column) *Table {
	t.Columns = append(t.Columns, columns...)
	return t
}

// AddIndexes appends the given indexes to the table.
func (t *Table) AddIndexes(indexes ...*Index) *Table {
	t.Indexes = append(t.Indexes, indexes...)
	return t
}

// AddForeignKeys appends the given foreign keys to the table.
func (t *Table) AddForeignKeys(fks ...*ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fks...)
	return t
}

// SetPrimaryKey sets the table primary key to the given column names.
func (t *Table) SetPrimaryKey(columns ...string) *Table {
	t.PrimaryKey = &PrimaryKey{Columns: columns}
	return t
}

// NewColumn creates a new required column with the given name.
func NewColumn(name string) *Column {
	return &Column{Name: name, Arity: Required}
}

// SetType sets the column type family and raw type.
func (c *Column) SetType(family Family, raw string) *Column {
	c.Type = ColumnType{Family: family, Raw: raw}
	return c
}

// SetArity sets the column arity.
func (c *Column) SetArity(a Arity) *Column {
	c.Arity = a
	return c
}

// SetDefault sets the column default to the given literal.
func (c *Column) SetDefault(v string) *Column {
	c.Default = &v
	return c
}

// NewIntColumn creates a new required integer column.
func NewIntColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyInt, raw)
}

// NewNullIntColumn creates a new nullable integer column.
func NewNullIntColumn(name, raw string) *Column {
	return NewIntColumn(name, raw).SetArity(Nullable)
}

// NewStringColumn creates a new required string column.
func NewStringColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyString, raw)
}

// NewNullStringColumn creates a new nullable string column.
func NewNullStringColumn(name, raw string) *Column {
	return NewStringColumn(name, raw).SetArity(Nullable)
}

// NewBoolColumn creates a new required boolean column.
func NewBoolColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyBoolean, raw)
}

// NewNullBoolColumn creates a new nullable boolean column.
func NewNullBoolColumn(name, raw string) *Column {
	return NewBoolColumn(name, raw).SetArity(Nullable)
}

// NewFloatColumn creates a new required float column.
func NewFloatColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyFloat, raw)
}

// NewTimeColumn creates a new required date/time column.
func NewTimeColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyDateTime, raw)
}

// NewNullTimeColumn creates a new nullable date/time column.
func NewNullTimeColumn(name, raw string) *Column {
	return NewTimeColumn(name, raw).SetArity(Nullable)
}

// NewJSONColumn creates a new required JSON column.
func NewJSONColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyJson, raw)
}

// NewBinaryColumn creates a new required binary column.
func NewBinaryColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyBinary, raw)
}

// NewUUIDColumn creates a new required UUID column.
func NewUUIDColumn(name, raw string) *Column {
	return NewColumn(name).SetType(FamilyUuid, raw)
}

// NewIndex creates a new index over the given columns.
func NewIndex(name string, columns ...string) *Index {
	return &Index{Name: name, Columns: columns, Kind: Normal}
}

// NewUniqueIndex creates a new unique index over the given columns.
func NewUniqueIndex(name string, columns ...string) *Index {
	return &Index{Name: name, Columns: columns, Kind: Unique}
}

// NewForeignKey creates a new foreign key constraining the given columns.
func NewForeignKey(columns ...string) *ForeignKey {
	return &ForeignKey{Columns: columns}
}

// References sets the referenced table and columns.
func (f *ForeignKey) References(table string, columns ...string) *ForeignKey {
	f.RefTable = table
	f.RefColumns = columns
	return f
}

// SetOnDelete sets the ON DELETE action.
func (f *ForeignKey) SetOnDelete(o ReferenceOption) *ForeignKey {
	f.OnDelete = o
	return f
}
