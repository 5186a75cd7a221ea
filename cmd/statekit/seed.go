package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/transition"
)

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <definition.yaml>",
		Short: "Register the transitions of a definition file and grant them",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			def, err := transition.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			_, catalog, _, err := a.engine(args[0])
			if err != nil {
				return err
			}

			res, err := transition.Seed(cmd.Context(), catalog, a.index(), def)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d, existing %d, granted %d\n", res.Registered, res.Existing, res.Granted)
			return nil
		}),
	}
}
