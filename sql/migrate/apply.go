// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stencildb/stencil/sql/schema"
)

// A StepApplier executes rendered migration steps one at a time against
// a database connection. Transaction handling is the caller's concern:
// SQLite rebuild sequences carry explicit PRAGMA pre/postambles but no
// BEGIN/COMMIT, and the applier must not assume atomicity across one.
type StepApplier struct {
	Family     SqlFamily
	SchemaName string
	Conn       schema.ExecQuerier
}

// ApplyStep executes corrected_steps[index] and reports whether a step
// at index+1 exists. An index past the end is not an error.
func (a *StepApplier) ApplyStep(ctx context.Context, m *Migration, index int) (bool, error) {
	return a.applyNext(ctx, m.CorrectedSteps, index)
}

// UnapplyStep executes rollback[index] and reports whether a step at
// index+1 exists.
func (a *StepApplier) UnapplyStep(ctx context.Context, m *Migration, index int) (bool, error) {
	return a.applyNext(ctx, m.Rollback, index)
}

func (a *StepApplier) applyNext(ctx context.Context, steps Steps, index int) (bool, error) {
	if index < 0 || index >= len(steps) {
		return false, nil
	}
	stmt := RenderStep(steps[index], a.Family, a.SchemaName)
	if _, err := a.Conn.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("migrate: apply step %d: %w", index, err)
	}
	return index+1 < len(steps), nil
}

// RenderStepsPretty returns the corrected steps as a JSON array. Each
// element is the step's persisted serialization with an extra top-level
// "raw" key holding the rendered SQL.
func RenderStepsPretty(m *Migration, family SqlFamily, schemaName string) ([]json.RawMessage, error) {
	pretty := make([]json.RawMessage, 0, len(m.CorrectedSteps))
	for _, step := range m.CorrectedSteps {
		b, err := MarshalStep(step)
		if err != nil {
			return nil, err
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(RenderStep(step, family, schemaName))
		if err != nil {
			return nil, err
		}
		obj["raw"] = raw
		b, err = json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		pretty = append(pretty, b)
	}
	return pretty, nil
}
