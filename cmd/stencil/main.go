// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Command stencil plans and applies SQL schema migrations derived from
// HCL schema or datamodel files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stencildb/stencil/sql/migrate"
	"github.com/stencildb/stencil/sql/schema"
	"github.com/stencildb/stencil/sql/sqlclient"
	"github.com/stencildb/stencil/sql/sqlspec"
)

type options struct {
	from         string
	to           string
	schemaName   string
	dialect      string
	dsn          string
	pluralize    bool
	mysqlVersion string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:          "stencil",
		Short:        "Plan and apply SQL schema migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.from, "from", "", "HCL file holding the current schema (empty database if omitted)")
	root.PersistentFlags().StringVar(&opts.to, "to", "", "HCL file holding the target schema or datamodel")
	root.PersistentFlags().StringVar(&opts.schemaName, "schema", "main", "database schema name")
	root.PersistentFlags().StringVar(&opts.dialect, "dialect", "sqlite", "target dialect: sqlite, mysql or postgres")
	root.PersistentFlags().BoolVar(&opts.pluralize, "pluralize", false, "derive pluralized table names from model names")
	root.PersistentFlags().StringVar(&opts.mysqlVersion, "mysql-version", "", "MySQL server version, used to skip rewrites newer servers do not need")
	root.AddCommand(planCmd(&opts), applyCmd(&opts), rollbackCmd(&opts), stepsCmd(&opts))
	return root
}

func planCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the SQL statements for migrating the current schema to the target one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, family, err := infer(opts)
			if err != nil {
				return err
			}
			bold := color.New(color.Bold)
			for i, step := range m.CorrectedSteps {
				bold.Fprintf(cmd.OutOrStdout(), "-- step %d\n", i)
				fmt.Fprintln(cmd.OutOrStdout(), migrate.RenderStep(step, family, opts.schemaName))
			}
			return nil
		},
	}
}

func applyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the corrected migration steps to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, a *migrate.StepApplier, m *migrate.Migration, i int) (bool, error) {
				return a.ApplyStep(ctx, m, i)
			})
		},
	}
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database connection string")
	return cmd
}

func rollbackCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Apply the rollback steps to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, a *migrate.StepApplier, m *migrate.Migration, i int) (bool, error) {
				return a.UnapplyStep(ctx, m, i)
			})
		},
	}
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database connection string")
	return cmd
}

func stepsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "Print the corrected steps as JSON, each with its rendered SQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, family, err := infer(opts)
			if err != nil {
				return err
			}
			pretty, err := migrate.RenderStepsPretty(m, family, opts.schemaName)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		},
	}
}

func run(ctx context.Context, opts *options, step func(context.Context, *migrate.StepApplier, *migrate.Migration, int) (bool, error)) error {
	if opts.dsn == "" {
		return fmt.Errorf("missing --dsn")
	}
	m, family, err := infer(opts)
	if err != nil {
		return err
	}
	client, err := sqlclient.Open(family, opts.dsn)
	if err != nil {
		return err
	}
	defer client.Close()
	a := &migrate.StepApplier{Family: family, SchemaName: opts.schemaName, Conn: client}
	for i, more := 0, true; more; i++ {
		if more, err = step(ctx, a, m, i); err != nil {
			return err
		}
	}
	return nil
}

func infer(opts *options) (*migrate.Migration, migrate.SqlFamily, error) {
	family, err := familyNamed(opts.dialect)
	if err != nil {
		return nil, family, err
	}
	if opts.to == "" {
		return nil, family, fmt.Errorf("missing --to")
	}
	calc := &sqlspec.Calculator{SchemaName: opts.schemaName, Family: family, Pluralize: opts.pluralize}
	current := schema.New(opts.schemaName)
	if opts.from != "" {
		if current, err = load(calc, opts.from); err != nil {
			return nil, family, err
		}
	}
	target, err := load(calc, opts.to)
	if err != nil {
		return nil, family, err
	}
	var correct []migrate.CorrectOption
	if opts.mysqlVersion != "" {
		correct = append(correct, migrate.WithMySQLVersion(opts.mysqlVersion))
	}
	m, err := migrate.Infer(current, target, opts.schemaName, family, correct...)
	return m, family, err
}

func load(calc *sqlspec.Calculator, path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := sqlspec.Parse(data, path)
	if err != nil {
		return nil, err
	}
	return calc.Calculate(f)
}

func familyNamed(name string) (migrate.SqlFamily, error) {
	switch migrate.SqlFamily(name) {
	case migrate.Sqlite, migrate.Mysql, migrate.Postgres:
		return migrate.SqlFamily(name), nil
	default:
		return "", fmt.Errorf("unknown dialect %q", name)
	}
}
