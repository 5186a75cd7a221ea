package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/schema"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the statekit tables",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		}),
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Drop every statekit table",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.rollback(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema rolled back")
			return nil
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			statuses, err := a.status(cmd.Context())
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), statuses)
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state, at := "pending", ""
				if s.Applied {
					state, at = "applied", s.AppliedAt.UTC().Format(time.RFC3339)
				}
				rows = append(rows, []string{strconv.FormatInt(s.Version, 10), state, at})
			}
			return printTable(cmd.OutOrStdout(), []string{"VERSION", "STATE", "APPLIED AT"}, rows)
		}),
	}

	sql := &cobra.Command{
		Use:   "sql",
		Short: "Print the DDL without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dialect, err := loadConfig(flags)
			if err != nil {
				return err
			}
			stmts, err := schema.Statements(dialect, cfg.Tables)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}

	cmd.AddCommand(up, down, status, sql)
	return cmd
}
