package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

type transitionView struct {
	transition.Transition
	Principals transition.Principals `json:"principals"`
}

func newTransitionsCmd(flags *globalFlags) *cobra.Command {
	var modelType, from string

	cmd := &cobra.Command{
		Use:     "transitions",
		Aliases: []string{"ls"},
		Short:   "List registered transitions with their grants",
		Args:    cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			list, err := a.transitions.ListTransitions(ctx, transition.Query{
				ModelType: state.ModelType(modelType),
				FromState: from,
			})
			if err != nil {
				return err
			}

			index := a.index()
			views := make([]transitionView, 0, len(list))
			for _, t := range list {
				p, err := index.PrincipalsFor(ctx, t.ID)
				if err != nil {
					return err
				}
				views = append(views, transitionView{Transition: t, Principals: p})
			}

			if flags.json {
				return printJSON(cmd.OutOrStdout(), views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.ID.String(), string(v.ModelType), v.FromState, v.ToState,
					strings.Join(v.Principals.Users, ","), strings.Join(v.Principals.Roles, ","),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "MODEL", "FROM", "TO", "USERS", "ROLES"}, rows)
		}),
	}
	cmd.Flags().StringVar(&modelType, "model", "", "only transitions of this model type")
	cmd.Flags().StringVar(&from, "from", "", "only transitions leaving this state")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <transition-id>",
		Short: "Delete a transition together with its grants",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid transition id: %w", err)
			}
			if err := a.transitions.DeleteTransition(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		}),
	})
	return cmd
}

// newGrantCmd builds "grant" when grant is true and "revoke" otherwise.
func newGrantCmd(flags *globalFlags, grant bool) *cobra.Command {
	var users, roles []string

	use, short, verb := "grant", "Allow users or roles to perform a transition", "granted"
	if !grant {
		use, short, verb = "revoke", "Withdraw a transition from users or roles", "revoked"
	}

	cmd := &cobra.Command{
		Use:   use + " <transition-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid transition id: %w", err)
			}
			if len(users) == 0 && len(roles) == 0 {
				return errors.New("at least one --user or --role is required")
			}

			index := a.index()
			principals := make([]transition.Principal, 0, len(users)+len(roles))
			for _, u := range users {
				principals = append(principals, index.User(u))
			}
			for _, r := range roles {
				principals = append(principals, index.Role(r))
			}

			for _, p := range principals {
				apply := index.Grant
				if !grant {
					apply = index.Revoke
				}
				if err := apply(cmd.Context(), id, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, p)
			}
			return nil
		}),
	}
	cmd.Flags().StringSliceVar(&users, "user", nil, "user id (repeatable)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role id (repeatable)")
	return cmd
}
