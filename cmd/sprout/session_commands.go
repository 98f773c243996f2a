package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sprout/internal/api"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect import sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSessionsListCommand(ctx))
	cmd.AddCommand(newSessionsShowCommand(ctx))
	cmd.AddCommand(newSessionsSelectCommand(ctx))
	return cmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your import sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context(), statusFilter)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No import sessions")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					session.ID,
					session.Status,
					session.IdentifiedSpecies,
					formatConfidence(session.Confidence),
					session.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Species", "Confidence", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (pending, needs_selection, researching, complete, failed)")
	return cmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one import session in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			session, err := client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSession(cmd, session)
			return nil
		},
	}
}

func newSessionsSelectCommand(ctx *commandContext) *cobra.Command {
	var scientificName string
	cmd := &cobra.Command{
		Use:   "select <session-id> <species>",
		Short: "Choose a species for a session awaiting selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			resp, err := client.Select(cmd.Context(), args[0], args[1], scientificName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Selection committed; research in progress")
			if resp.Session != nil {
				printSession(cmd, resp.Session)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scientificName, "scientific-name", "", "Scientific (binomial) name of the chosen species")
	_ = cmd.MarkFlagRequired("scientific-name")
	return cmd
}

func printSession(cmd *cobra.Command, session *api.SessionView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", session.ID)
	fmt.Fprintf(out, "Status:      %s\n", session.Status)
	if session.IdentifiedSpecies != "" {
		fmt.Fprintf(out, "Species:     %s", session.IdentifiedSpecies)
		if session.ScientificName != "" {
			fmt.Fprintf(out, " (%s)", session.ScientificName)
		}
		fmt.Fprintln(out)
	}
	if session.Confidence != nil {
		fmt.Fprintf(out, "Confidence:  %s\n", formatConfidence(session.Confidence))
	}
	if len(session.Suggestions) > 0 {
		fmt.Fprintln(out, "Candidates:")
		for _, suggestion := range session.Suggestions {
			line := "  - " + suggestion.Species
			if suggestion.ScientificName != "" {
				line += " (" + suggestion.ScientificName + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
	if session.Care != nil {
		fmt.Fprintf(out, "Watering:    every %d days\n", session.Care.WateringIntervalDays)
		fmt.Fprintf(out, "Fertilizing: every %d days\n", session.Care.FertilizingIntervalDays)
		if session.Care.Light != "" {
			fmt.Fprintf(out, "Light:       %s\n", session.Care.Light)
		}
		if session.Care.Notes != "" {
			fmt.Fprintf(out, "Notes:       %s\n", strings.TrimSpace(session.Care.Notes))
		}
	}
	if session.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s\n", session.ErrorMessage)
	}
}

func formatConfidence(confidence *float64) string {
	if confidence == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *confidence)
}
