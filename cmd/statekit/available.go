package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

// cliEntity is an entity described entirely by flags.
type cliEntity struct {
	ref   state.ModelRef
	state string
}

func (e cliEntity) ModelRef() state.ModelRef { return e.ref }
func (e cliEntity) State() state.State       { return state.StringState(e.state) }

func newAvailableCmd(flags *globalFlags) *cobra.Command {
	var (
		definition, modelType, modelID, current, to, user string
		roles                                             []string
	)

	cmd := &cobra.Command{
		Use:   "available",
		Short: "List the transitions a user may perform, or check a single one with --to",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			resolver := transition.WithRoleResolver(func(context.Context, transition.Actor) ([]string, error) {
				return roles, nil
			})
			_, _, authz, err := a.engine(definition, resolver)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			entity := cliEntity{ref: state.Ref(state.ModelType(modelType), modelID), state: current}
			var actor transition.Actor
			if user != "" {
				actor = transition.UserID(user)
			}

			if to != "" {
				if err := authz.Authorize(ctx, entity, actor, to); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "allowed: %s -> %s\n", current, to)
				return nil
			}

			list, err := authz.Available(ctx, entity, actor)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, []string{t.ID.String(), t.FromState, t.ToState})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "FROM", "TO"}, rows)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&definition, "definition", "", "definition file declaring the model states")
	f.StringVar(&modelType, "model", "", "model type")
	f.StringVar(&modelID, "id", "-", "model id")
	f.StringVar(&current, "state", "", "current state of the model")
	f.StringVar(&to, "to", "", "target state to authorize")
	f.StringVar(&user, "user", "", "acting user id; empty means anonymous")
	f.StringSliceVar(&roles, "role", nil, "role ids of the acting user (repeatable)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}
