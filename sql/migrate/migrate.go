// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package migrate implements the migration planning core: diffing two
// schema snapshots, correcting the resulting step sequence for the
// limitations of the target dialect, computing a rollback sequence, and
// rendering each step to executable SQL.
package migrate

import (
	"context"

	"github.com/stencildb/stencil/sql/schema"
)

// A SqlFamily selects the target dialect. It is a closed enumeration:
// every switch over it handles all three members.
type SqlFamily string

// List of supported dialects.
const (
	Sqlite   SqlFamily = "sqlite"
	Mysql    SqlFamily = "mysql"
	Postgres SqlFamily = "postgres"
)

// migrationsTable is the bookkeeping table holding the applied
// migration history. It survives the radical rebuild.
const migrationsTable = "_Migration"

// A Migration is the planning artifact for moving a database from the
// Before schema to the After schema. It is constructed once by Infer
// and read-only afterwards. CorrectedSteps is what the applier
// executes; Rollback is the corrected step sequence for the reverse
// direction.
type Migration struct {
	Before         *schema.Schema `json:"before"`
	After          *schema.Schema `json:"after"`
	OriginalSteps  Steps          `json:"original_steps"`
	CorrectedSteps Steps          `json:"corrected_steps"`
	Rollback       Steps          `json:"rollback"`
}

// Infer computes the migration from the current schema to the target
// schema for the given dialect. Both directions run through the full
// correction pipeline, so the rollback can itself contain SQLite
// rebuilds.
func Infer(current, target *schema.Schema, schemaName string, family SqlFamily, opts ...CorrectOption) (*Migration, error) {
	original, corrected, err := planSteps(current, target, schemaName, family, opts...)
	if err != nil {
		return nil, err
	}
	_, rollback, err := planSteps(target, current, schemaName, family, opts...)
	if err != nil {
		return nil, err
	}
	return &Migration{
		Before:         current.Clone(),
		After:          target.Clone(),
		OriginalSteps:  original,
		CorrectedSteps: corrected,
		Rollback:       rollback,
	}, nil
}

func planSteps(from, to *schema.Schema, schemaName string, family SqlFamily, opts ...CorrectOption) (Steps, Steps, error) {
	original := Diff(from, to).IntoSteps()
	corrected, err := Correct(Diff(from, to), from, to, schemaName, family, opts...)
	if err != nil {
		return nil, nil, err
	}
	return original, corrected, nil
}

type (
	// An Introspector reads the current state of a live database
	// schema. Implementations are provided by the connection drivers.
	Introspector interface {
		Describe(ctx context.Context, name string) (*schema.Schema, error)
	}

	// A Calculator derives the target schema snapshot from an opaque
	// datamodel.
	Calculator interface {
		Calculate(datamodel any) (*schema.Schema, error)
	}

	// An Inferrer wires the introspector and the calculator to the
	// planning pipeline.
	Inferrer struct {
		Family       SqlFamily
		SchemaName   string
		Introspector Introspector
		Calculator   Calculator
		Options      []CorrectOption
	}
)

// Infer derives the migration for moving the introspected schema to the
// schema calculated from the next datamodel. The previous datamodel and
// the high-level steps are accepted for interface compatibility and
// ignored: SQL migrations are derived from schemas, not steps.
func (i *Inferrer) Infer(ctx context.Context, _, next any, _ []Step) (*Migration, error) {
	current, err := i.Introspector.Describe(ctx, i.SchemaName)
	if err != nil {
		return nil, err
	}
	target, err := i.Calculator.Calculate(next)
	if err != nil {
		return nil, err
	}
	return Infer(current, target, i.SchemaName, i.Family, i.Options...)
}
