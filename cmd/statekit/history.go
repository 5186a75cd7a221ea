package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

// metadataFlags are shared by the commands that attach metadata.
type metadataFlags struct {
	description string
	properties  []string
	keepEmpty   bool
}

func (m *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.description, "description", "", "description of the change")
	cmd.Flags().StringArrayVar(&m.properties, "property", nil, "custom property as key=value (repeatable)")
	cmd.Flags().BoolVar(&m.keepEmpty, "keep-empty", false, "record blank metadata instead of ignoring it")
}

func (m *metadataFlags) options() ([]history.MetadataOption, error) {
	props, err := parseProperties(m.properties)
	if err != nil {
		return nil, err
	}
	opts := []history.MetadataOption{history.WithDescription(m.description)}
	if props != nil {
		opts = append(opts, history.WithProperties(props))
	}
	if m.keepEmpty {
		opts = append(opts, history.WithEmptyKept())
	}
	return opts, nil
}

func modelRef(args []string) state.ModelRef {
	return state.Ref(state.ModelType(args[0]), args[1])
}

func newStageCmd(flags *globalFlags) *cobra.Command {
	var md metadataFlags
	cmd := &cobra.Command{
		Use:   "stage <model-type> <model-id>",
		Short: "Stage metadata for the next recorded change of a model",
		Long: "Stage metadata for the next recorded change of a model.\n" +
			"Staged metadata outlives this process only when REDIS_URL is set.",
		Args: cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			opts, err := md.options()
			if err != nil {
				return err
			}
			if _, ok := a.stager.(*history.MemoryStager); ok {
				a.log.WarnContext(cmd.Context(), "REDIS_URL is not set, staged metadata is dropped when the command exits")
			}
			ref := modelRef(args)
			if err := a.tracker().Stage(cmd.Context(), ref, opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged metadata for %s\n", ref)
			return nil
		}),
	}
	md.register(cmd)
	return cmd
}

func newRecordCmd(flags *globalFlags) *cobra.Command {
	var (
		md       metadataFlags
		from, to string
		actor    string
	)
	cmd := &cobra.Command{
		Use:   "record <model-type> <model-id>",
		Short: "Record a committed state change of a model",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			opts, err := md.options()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if actor != "" {
				ctx = transition.WithActor(ctx, transition.UserID(actor))
			}

			ref := modelRef(args)
			// The host already committed the change; there is nothing left to run.
			committed := func(context.Context) error { return nil }
			rec, err := a.tracker().TransitionTo(ctx, ref, from, to, committed, opts...)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing recorded for %s: state unchanged and no metadata\n", ref)
				return nil
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", rec.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "state before the change; empty for creation")
	cmd.Flags().StringVar(&to, "to", "", "state after the change")
	cmd.Flags().StringVar(&actor, "actor", "", "id of the user who made the change")
	md.register(cmd)
	return cmd
}

func newAnnotateCmd(flags *globalFlags) *cobra.Command {
	var md metadataFlags
	cmd := &cobra.Command{
		Use:   "annotate <history-id>",
		Short: "Replace the description and properties of a history record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid history id: %w", err)
			}
			opts, err := md.options()
			if err != nil {
				return err
			}
			if err := a.recorder().Annotate(cmd.Context(), id, history.NewMetadata(opts...)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "annotated %s\n", id)
			return nil
		}),
	}
	md.register(cmd)
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit, offset int
		desc          bool
		createdBy     string
		since         string
	)
	cmd := &cobra.Command{
		Use:   "history <model-type> [model-id]",
		Short: "Show the transition history of a model or a model type",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			criteria := history.Criteria{
				ModelType: state.ModelType(args[0]),
				CreatedBy: createdBy,
				Limit:     limit,
				Offset:    offset,
			}
			if len(args) == 2 {
				criteria.Model = modelRef(args)
			}
			if desc {
				criteria.Order = history.OrderDesc
			}
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				criteria.Since = time.Now().Add(-d)
			}

			reader := history.NewReader(a.history, nil)
			records, err := reader.Find(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), records)
			}

			total, err := reader.Count(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.CreatedAt.UTC().Format(time.RFC3339), r.Model.String(),
					r.FromState, r.ToState, deref(r.CreatedBy), deref(r.Description), r.ID.String(),
				})
			}
			if err := printTable(cmd.OutOrStdout(), []string{"AT", "MODEL", "FROM", "TO", "BY", "DESCRIPTION", "ID"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %s records\n", len(records), strconv.FormatInt(total, 10))
			return nil
		}),
	}
	f := cmd.Flags()
	f.IntVar(&limit, "limit", 50, "maximum number of records")
	f.IntVar(&offset, "offset", 0, "records to skip")
	f.BoolVar(&desc, "desc", false, "newest first")
	f.StringVar(&createdBy, "by", "", "only changes made by this user")
	f.StringVar(&since, "since", "", "only changes newer than this duration, e.g. 24h")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
