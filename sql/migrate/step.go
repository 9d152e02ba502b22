// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"encoding/json"
	"fmt"

	"github.com/stencildb/stencil/sql/schema"
)

type (
	// A Step represents one elementary migration operation at a
	// dialect-neutral level. The types below implement this interface
	// and are the only step variants; the corrector and the renderer
	// both rely on exhaustive case analysis over them.
	Step interface {
		step()
	}

	// CreateTable describes a table creation step. The table carries
	// its target definition for the renderer, minus any foreign-key
	// columns that the corrector moved to a later AlterTable.
	CreateTable struct {
		Table *schema.Table `json:"table"`
	}

	// DropTable describes a table removal step.
	DropTable struct {
		Name string `json:"name"`
	}

	// DropTables describes the removal of multiple tables in one
	// statement. It is produced only by the radical-rebuild branch
	// of the corrector.
	DropTables struct {
		Names []string `json:"names"`
	}

	// RenameTable describes a table rename step.
	RenameTable struct {
		Old string `json:"old"`
		New string `json:"new"`
	}

	// AlterTable describes a table modification step. The table holds
	// the target definition of the altered table.
	AlterTable struct {
		Table   *schema.Table `json:"table"`
		Changes TableChanges  `json:"changes"`
	}

	// CreateIndex describes an index creation step.
	CreateIndex struct {
		Table *schema.Table `json:"table"`
		Index *schema.Index `json:"index"`
	}

	// DropIndex describes an index removal step.
	DropIndex struct {
		Table string `json:"table"`
		Name  string `json:"name"`
	}

	// AlterIndex describes an index rename step.
	AlterIndex struct {
		Table   string `json:"table"`
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}

	// RawSql describes a verbatim SQL step.
	RawSql struct {
		SQL string `json:"sql"`
	}
)

type (
	// A TableChange represents a change applied to a table by an
	// AlterTable step.
	TableChange interface {
		tableChange()
	}

	// AddColumn describes a column creation change.
	AddColumn struct {
		Column *schema.Column `json:"column"`
	}

	// DropColumn describes a column removal change.
	DropColumn struct {
		Name string `json:"name"`
	}

	// AlterColumn describes a change that modifies a column. The
	// column holds the full target definition.
	AlterColumn struct {
		Name   string         `json:"name"`
		Column *schema.Column `json:"new_column"`
		Change ColumnChange   `json:"change"`
	}

	// A ColumnChange classifies an AlterColumn.
	ColumnChange interface {
		columnChange()
	}

	// ReplaceColumn describes a column that is fully replaced by its
	// target definition.
	ReplaceColumn struct{}

	// ChangeArity describes a column whose definition differs only
	// in arity.
	ChangeArity struct {
		From schema.Arity `json:"from"`
		To   schema.Arity `json:"to"`
	}
)

// steps.
func (*CreateTable) step() {}
func (*DropTable) step()   {}
func (*DropTables) step()  {}
func (*RenameTable) step() {}
func (*AlterTable) step()  {}
func (*CreateIndex) step() {}
func (*DropIndex) step()   {}
func (*AlterIndex) step()  {}
func (*RawSql) step()      {}

// table changes.
func (*AddColumn) tableChange()   {}
func (*DropColumn) tableChange()  {}
func (*AlterColumn) tableChange() {}

// column changes.
func (*ReplaceColumn) columnChange() {}
func (*ChangeArity) columnChange() {}

// Steps is a list of steps that marshals to the persisted
// externally-tagged form.
type Steps []Step

// TableChanges is a list of table changes.
type TableChanges []TableChange

// stepEnvelope is the persisted form of a single step. The key names
// are the wire format and must not change.
type stepEnvelope struct {
	CreateTable *CreateTable `json:"CreateTable,omitempty"`
	AlterTable  *AlterTable  `json:"AlterTable,omitempty"`
	DropTable   *DropTable   `json:"DropTable,omitempty"`
	DropTables  *DropTables  `json:"DropTables,omitempty"`
	RenameTable *RenameTable `json:"RenameTable,omitempty"`
	RawSql      *RawSql      `json:"RawSql,omitempty"`
	CreateIndex *CreateIndex `json:"CreateIndex,omitempty"`
	DropIndex   *DropIndex   `json:"DropIndex,omitempty"`
	AlterIndex  *AlterIndex  `json:"AlterIndex,omitempty"`
}

// MarshalStep returns the persisted JSON form of a single step.
func MarshalStep(s Step) ([]byte, error) {
	var e stepEnvelope
	switch s := s.(type) {
	case *CreateTable:
		e.CreateTable = s
	case *AlterTable:
		e.AlterTable = s
	case *DropTable:
		e.DropTable = s
	case *DropTables:
		e.DropTables = s
	case *RenameTable:
		e.RenameTable = s
	case *RawSql:
		e.RawSql = s
	case *CreateIndex:
		e.CreateIndex = s
	case *DropIndex:
		e.DropIndex = s
	case *AlterIndex:
		e.AlterIndex = s
	default:
		return nil, fmt.Errorf("migrate: unexpected step type %T", s)
	}
	return json.Marshal(&e)
}

// UnmarshalStep decodes a single step from its persisted JSON form.
func UnmarshalStep(b []byte) (Step, error) {
	var e stepEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	switch {
	case e.CreateTable != nil:
		return e.CreateTable, nil
	case e.AlterTable != nil:
		return e.AlterTable, nil
	case e.DropTable != nil:
		return e.DropTable, nil
	case e.DropTables != nil:
		return e.DropTables, nil
	case e.RenameTable != nil:
		return e.RenameTable, nil
	case e.RawSql != nil:
		return e.RawSql, nil
	case e.CreateIndex != nil:
		return e.CreateIndex, nil
	case e.DropIndex != nil:
		return e.DropIndex, nil
	case e.AlterIndex != nil:
		return e.AlterIndex, nil
	default:
		return nil, fmt.Errorf("migrate: unknown step variant: %s", string(b))
	}
}

// MarshalJSON implements json.Marshaler.
func (s Steps) MarshalJSON() ([]byte, error) {
	msgs := make([]json.RawMessage, len(s))
	for i := range s {
		b, err := MarshalStep(s[i])
		if err != nil {
			return nil, err
		}
		msgs[i] = b
	}
	return json.Marshal(msgs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Steps) UnmarshalJSON(b []byte) error {
	var msgs []json.RawMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return err
	}
	steps := make(Steps, len(msgs))
	for i := range msgs {
		step, err := UnmarshalStep(msgs[i])
		if err != nil {
			return err
		}
		steps[i] = step
	}
	*s = steps
	return nil
}

// tableChangeEnvelope is the persisted form of a single table change.
type tableChangeEnvelope struct {
	AddColumn   *AddColumn   `json:"AddColumn,omitempty"`
	DropColumn  *DropColumn  `json:"DropColumn,omitempty"`
	AlterColumn *AlterColumn `json:"AlterColumn,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c TableChanges) MarshalJSON() ([]byte, error) {
	msgs := make([]json.RawMessage, len(c))
	for i := range c {
		var e tableChangeEnvelope
		switch change := c[i].(type) {
		case *AddColumn:
			e.AddColumn = change
		case *DropColumn:
			e.DropColumn = change
		case *AlterColumn:
			e.AlterColumn = change
		default:
			return nil, fmt.Errorf("migrate: unexpected table change type %T", change)
		}
		b, err := json.Marshal(&e)
		if err != nil {
			return nil, err
		}
		msgs[i] = b
	}
	return json.Marshal(msgs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *TableChanges) UnmarshalJSON(b []byte) error {
	var msgs []json.RawMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return err
	}
	changes := make(TableChanges, len(msgs))
	for i := range msgs {
		var e tableChangeEnvelope
		if err := json.Unmarshal(msgs[i], &e); err != nil {
			return err
		}
		switch {
		case e.AddColumn != nil:
			changes[i] = e.AddColumn
		case e.DropColumn != nil:
			changes[i] = e.DropColumn
		case e.AlterColumn != nil:
			changes[i] = e.AlterColumn
		default:
			return fmt.Errorf("migrate: unknown table change variant: %s", string(msgs[i]))
		}
	}
	*c = changes
	return nil
}

// columnChangeEnvelope is the persisted form of a column change.
type columnChangeEnvelope struct {
	ReplaceColumn *ReplaceColumn `json:"ReplaceColumn,omitempty"`
	ChangeArity   *ChangeArity   `json:"ChangeArity,omitempty"`
}

// alterColumnJSON mirrors AlterColumn with the change flattened into
// its envelope form.
type alterColumnJSON struct {
	Name   string               `json:"name"`
	Column *schema.Column       `json:"new_column"`
	Change columnChangeEnvelope `json:"change"`
}

// MarshalJSON implements json.Marshaler.
func (c *AlterColumn) MarshalJSON() ([]byte, error) {
	a := alterColumnJSON{Name: c.Name, Column: c.Column}
	switch change := c.Change.(type) {
	case *ReplaceColumn:
		a.Change.ReplaceColumn = change
	case *ChangeArity:
		a.Change.ChangeArity = change
	default:
		return nil, fmt.Errorf("migrate: unexpected column change type %T", change)
	}
	return json.Marshal(&a)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *AlterColumn) UnmarshalJSON(b []byte) error {
	var a alterColumnJSON
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	c.Name, c.Column = a.Name, a.Column
	switch {
	case a.Change.ReplaceColumn != nil:
		c.Change = a.Change.ReplaceColumn
	case a.Change.ChangeArity != nil:
		c.Change = a.Change.ChangeArity
	default:
		return fmt.Errorf("migrate: unknown column change variant: %s", string(b))
	}
	return nil
}
