package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "statekit",
		Short:         "Manage state transitions, their grants and the transition history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before reading the environment")
	pf.StringVar(&flags.driver, "driver", "", "storage driver: sqlite or postgres (default from STATEKIT_DRIVER)")
	pf.StringVar(&flags.dsn, "dsn", "", "database connection string (default from SQLITE_DSN or PG_CONN_URL)")
	pf.BoolVar(&flags.json, "json", false, "print results as JSON")

	root.AddCommand(
		newMigrateCmd(flags),
		newSeedCmd(flags),
		newTransitionsCmd(flags),
		newGrantCmd(flags, true),
		newGrantCmd(flags, false),
		newAvailableCmd(flags),
		newStageCmd(flags),
		newRecordCmd(flags),
		newAnnotateCmd(flags),
		newHistoryCmd(flags),
		newHealthCmd(flags),
	)
	return root
}

// withApp opens the app for the duration of fn.
func withApp(flags *globalFlags, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, flags)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// parseProperties turns key=value pairs into a property bag.
func parseProperties(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		props[strings.TrimSpace(k)] = v
	}
	return props, nil
}
