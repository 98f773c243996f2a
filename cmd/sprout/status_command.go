package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and session counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.newClient()
			if err != nil {
				return err
			}
			if err := api.Health(cmd.Context()); err != nil {
				return fmt.Errorf("daemon is not reachable: %w", err)
			}
			status, err := api.Status(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(status))
			keys := make([]string, 0, len(status))
			for key := range status {
				if key == "sessions" {
					continue
				}
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				rows = append(rows, []string{key, fmt.Sprint(status[key])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))

			sessions, ok := status["sessions"].(map[string]any)
			if !ok || len(sessions) == 0 {
				return nil
			}
			sessionRows := make([][]string, 0, len(sessions))
			statuses := make([]string, 0, len(sessions))
			for name := range sessions {
				statuses = append(statuses, name)
			}
			sort.Strings(statuses)
			for _, name := range statuses {
				sessionRows = append(sessionRows, []string{name, fmt.Sprint(sessions[name])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Session Status", "Count"},
				sessionRows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
