// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqlspec parses HCL documents into schema snapshots. Two block
// forms are supported: "schema" blocks describe tables structurally,
// and "model" blocks describe a higher-level datamodel that is lowered
// to tables by the Calculator.
package sqlspec

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/go-openapi/inflect"

	"github.com/stencildb/stencil/sql/migrate"
	"github.com/stencildb/stencil/sql/schema"
)

type (
	// File is the decoded form of a spec document.
	File struct {
		Schemas []*SchemaSpec `hcl:"schema,block"`
		Models  []*ModelSpec  `hcl:"model,block"`
	}

	// SchemaSpec describes a schema and its tables structurally.
	SchemaSpec struct {
		Name   string       `hcl:"name,label"`
		Tables []*TableSpec `hcl:"table,block"`
	}

	// TableSpec describes a table.
	TableSpec struct {
		Name        string            `hcl:"name,label"`
		Columns     []*ColumnSpec     `hcl:"column,block"`
		PrimaryKey  *PrimaryKeySpec   `hcl:"primary_key,block"`
		Indexes     []*IndexSpec      `hcl:"index,block"`
		ForeignKeys []*ForeignKeySpec `hcl:"foreign_key,block"`
	}

	// ColumnSpec describes a column. Type holds the family name; the
	// raw dialect type derives from the family when not set.
	ColumnSpec struct {
		Name    string    `hcl:"name,label"`
		Type    string    `hcl:"type"`
		Raw     string    `hcl:"raw,optional"`
		Null    bool      `hcl:"null,optional"`
		List    bool      `hcl:"list,optional"`
		Default cty.Value `hcl:"default,optional"`
	}

	// PrimaryKeySpec describes a table primary key.
	PrimaryKeySpec struct {
		Columns []string `hcl:"columns"`
	}

	// IndexSpec describes an index.
	IndexSpec struct {
		Name    string   `hcl:"name,label"`
		Columns []string `hcl:"columns"`
		Unique  bool     `hcl:"unique,optional"`
	}

	// ForeignKeySpec describes a foreign key.
	ForeignKeySpec struct {
		Columns    []string `hcl:"columns"`
		RefTable   string   `hcl:"ref_table"`
		RefColumns []string `hcl:"ref_columns"`
		OnDelete   string   `hcl:"on_delete,optional"`
	}

	// ModelSpec describes a datamodel entity.
	ModelSpec struct {
		Name   string       `hcl:"name,label"`
		Fields []*FieldSpec `hcl:"field,block"`
	}

	// FieldSpec describes a datamodel field. A field either carries a
	// scalar type, or references another model.
	FieldSpec struct {
		Name       string    `hcl:"name,label"`
		Type       string    `hcl:"type,optional"`
		Raw        string    `hcl:"raw,optional"`
		ID         bool      `hcl:"id,optional"`
		Unique     bool      `hcl:"unique,optional"`
		Optional   bool      `hcl:"optional,optional"`
		List       bool      `hcl:"list,optional"`
		References string    `hcl:"references,optional"`
		OnDelete   string    `hcl:"on_delete,optional"`
		Default    cty.Value `hcl:"default,optional"`
	}
)

// Parse decodes the given document.
func Parse(data []byte, filename string) (*File, error) {
	p := hclparse.NewParser()
	hf, diags := p.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	var f File
	if diags := gohcl.DecodeBody(hf.Body, nil, &f); diags.HasErrors() {
		return nil, diags
	}
	return &f, nil
}

// A Calculator lowers a datamodel to the target schema snapshot for
// one dialect. It implements migrate.Calculator.
type Calculator struct {
	SchemaName string
	Family     migrate.SqlFamily
	// Pluralize derives table names from model names the usual ORM
	// way: model "User" becomes table "users".
	Pluralize bool
}

// Calculate lowers the given datamodel to a schema. The datamodel can
// be a parsed *File, or the raw document as []byte or string.
func (c *Calculator) Calculate(datamodel any) (*schema.Schema, error) {
	var (
		f   *File
		err error
	)
	switch dm := datamodel.(type) {
	case *File:
		f = dm
	case []byte:
		f, err = Parse(dm, "datamodel.hcl")
	case string:
		f, err = Parse([]byte(dm), "datamodel.hcl")
	default:
		return nil, fmt.Errorf("sqlspec: unexpected datamodel type %T", datamodel)
	}
	if err != nil {
		return nil, err
	}
	s := schema.New(c.SchemaName)
	for _, spec := range f.Schemas {
		if spec.Name != c.SchemaName && c.SchemaName != "" && len(f.Schemas) > 1 {
			continue
		}
		for _, ts := range spec.Tables {
			t, err := c.table(ts)
			if err != nil {
				return nil, err
			}
			s.AddTables(t)
		}
	}
	for _, m := range f.Models {
		t, err := c.model(f, m)
		if err != nil {
			return nil, err
		}
		s.AddTables(t)
	}
	return s, nil
}

func (c *Calculator) table(spec *TableSpec) (*schema.Table, error) {
	t := schema.NewTable(spec.Name)
	for _, cs := range spec.Columns {
		family, ok := familyNamed(cs.Type)
		if !ok {
			return nil, fmt.Errorf("sqlspec: table %q column %q: unknown type family %q", spec.Name, cs.Name, cs.Type)
		}
		col := schema.NewColumn(cs.Name).SetType(family, c.rawType(family, cs.Raw))
		switch {
		case cs.List:
			col.SetArity(schema.List)
		case cs.Null:
			col.SetArity(schema.Nullable)
		}
		if v, ok, err := literal(cs.Default); err != nil {
			return nil, fmt.Errorf("sqlspec: table %q column %q: %w", spec.Name, cs.Name, err)
		} else if ok {
			col.SetDefault(v)
		}
		t.AddColumns(col)
	}
	if spec.PrimaryKey != nil {
		t.SetPrimaryKey(spec.PrimaryKey.Columns...)
	}
	for _, is := range spec.Indexes {
		idx := schema.NewIndex(is.Name, is.Columns...)
		if is.Unique {
			idx = schema.NewUniqueIndex(is.Name, is.Columns...)
		}
		t.AddIndexes(idx)
	}
	for _, fs := range spec.ForeignKeys {
		fk := schema.NewForeignKey(fs.Columns...).References(fs.RefTable, fs.RefColumns...)
		if fs.OnDelete != "" {
			fk.SetOnDelete(schema.ReferenceOption(fs.OnDelete))
		}
		t.AddForeignKeys(fk)
	}
	return t, nil
}

func (c *Calculator) model(f *File, m *ModelSpec) (*schema.Table, error) {
	t := schema.NewTable(c.tableName(m.Name))
	for _, fs := range m.Fields {
		if fs.References != "" {
			if err := c.relation(f, t, m, fs); err != nil {
				return nil, err
			}
			continue
		}
		family, ok := familyNamed(fs.Type)
		if !ok {
			return nil, fmt.Errorf("sqlspec: model %q field %q: unknown type family %q", m.Name, fs.Name, fs.Type)
		}
		col := schema.NewColumn(fs.Name).SetType(family, c.rawType(family, fs.Raw))
		switch {
		case fs.List:
			col.SetArity(schema.List)
		case fs.Optional:
			col.SetArity(schema.Nullable)
		}
		if v, ok, err := literal(fs.Default); err != nil {
			return nil, fmt.Errorf("sqlspec: model %q field %q: %w", m.Name, fs.Name, err)
		} else if ok {
			col.SetDefault(v)
		}
		t.AddColumns(col)
		if fs.ID {
			t.SetPrimaryKey(fs.Name)
		}
		if fs.Unique {
			t.AddIndexes(schema.NewUniqueIndex(t.Name+"_"+fs.Name+"_key", fs.Name))
		}
	}
	return t, nil
}

// relation lowers a reference field to a foreign-key column pointing at
// the referenced model's id field.
func (c *Calculator) relation(f *File, t *schema.Table, m *ModelSpec, fs *FieldSpec) error {
	ref, ok := modelNamed(f, fs.References)
	if !ok {
		return fmt.Errorf("sqlspec: model %q field %q: referenced model %q not found", m.Name, fs.Name, fs.References)
	}
	id, ok := idField(ref)
	if !ok {
		return fmt.Errorf("sqlspec: model %q has no id field, referenced by %q.%q", ref.Name, m.Name, fs.Name)
	}
	family, ok := familyNamed(id.Type)
	if !ok {
		return fmt.Errorf("sqlspec: model %q field %q: unknown type family %q", ref.Name, id.Name, id.Type)
	}
	col := schema.NewColumn(fs.Name).SetType(family, c.rawType(family, id.Raw))
	if fs.Optional {
		col.SetArity(schema.Nullable)
	}
	t.AddColumns(col)
	fk := schema.NewForeignKey(fs.Name).References(c.tableName(ref.Name), id.Name)
	if fs.OnDelete != "" {
		fk.SetOnDelete(schema.ReferenceOption(fs.OnDelete))
	}
	t.AddForeignKeys(fk)
	return nil
}

func (c *Calculator) tableName(model string) string {
	if !c.Pluralize {
		return model
	}
	return inflect.Pluralize(inflect.Underscore(model))
}

// rawType returns the raw dialect type for a family when the spec does
// not pin one explicitly.
func (c *Calculator) rawType(f schema.Family, raw string) string {
	if raw != "" {
		return raw
	}
	types, ok := rawTypes[c.Family]
	if !ok {
		types = rawTypes[migrate.Sqlite]
	}
	return types[f]
}

var rawTypes = map[migrate.SqlFamily]map[schema.Family]string{
	migrate.Sqlite: {
		schema.FamilyString:   "TEXT",
		schema.FamilyInt:      "INTEGER",
		schema.FamilyFloat:    "REAL",
		schema.FamilyBoolean:  "BOOLEAN",
		schema.FamilyDateTime: "DATE",
		schema.FamilyEnum:     "TEXT",
		schema.FamilyJson:     "TEXT",
		schema.FamilyBinary:   "BLOB",
		schema.FamilyUuid:     "TEXT",
	},
	migrate.Mysql: {
		schema.FamilyString:   "mediumtext",
		schema.FamilyInt:      "int",
		schema.FamilyFloat:    "double",
		schema.FamilyBoolean:  "boolean",
		schema.FamilyDateTime: "datetime(3)",
		schema.FamilyEnum:     "varchar(191)",
		schema.FamilyJson:     "json",
		schema.FamilyBinary:   "longblob",
		schema.FamilyUuid:     "char(36)",
	},
	migrate.Postgres: {
		schema.FamilyString:   "text",
		schema.FamilyInt:      "integer",
		schema.FamilyFloat:    "double precision",
		schema.FamilyBoolean:  "boolean",
		schema.FamilyDateTime: "timestamp(3)",
		schema.FamilyEnum:     "text",
		schema.FamilyJson:     "jsonb",
		schema.FamilyBinary:   "bytea",
		schema.FamilyUuid:     "uuid",
	},
}

var families = map[string]schema.Family{
	"String":   schema.FamilyString,
	"Int":      schema.FamilyInt,
	"Float":    schema.FamilyFloat,
	"Boolean":  schema.FamilyBoolean,
	"DateTime": schema.FamilyDateTime,
	"Enum":     schema.FamilyEnum,
	"Json":     schema.FamilyJson,
	"Binary":   schema.FamilyBinary,
	"Uuid":     schema.FamilyUuid,
}

func familyNamed(name string) (schema.Family, bool) {
	f, ok := families[name]
	return f, ok
}

func modelNamed(f *File, name string) (*ModelSpec, bool) {
	for _, m := range f.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

func idField(m *ModelSpec) (*FieldSpec, bool) {
	for _, fs := range m.Fields {
		if fs.ID {
			return fs, true
		}
	}
	return nil, false
}

// literal converts an HCL attribute value to its rendered literal form.
func literal(v cty.Value) (string, bool, error) {
	if v == cty.NilVal || v.IsNull() {
		return "", false, nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), true, nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), true, nil
	case cty.Bool:
		return strconv.FormatBool(v.True()), true, nil
	default:
		return "", false, fmt.Errorf("unsupported default value type %s", v.Type().FriendlyName())
	}
}
