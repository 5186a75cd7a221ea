package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured storage and staging backends answer",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			type result struct {
				Backend string `json:"backend"`
				OK      bool   `json:"ok"`
				Error   string `json:"error,omitempty"`
			}

			var (
				results []result
				errs    []error
			)
			for _, p := range a.probes {
				r := result{Backend: p.name, OK: true}
				if err := p.check(cmd.Context()); err != nil {
					r.OK, r.Error = false, err.Error()
					errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
				}
				results = append(results, r)
			}

			if flags.json {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.OK {
						status = r.Error
					}
					rows = append(rows, []string{r.Backend, status})
				}
				if err := printTable(cmd.OutOrStdout(), []string{"BACKEND", "STATUS"}, rows); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		}),
	}
}
