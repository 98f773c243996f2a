package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sprout/internal/export"
	"sprout/internal/store"
)

// newExportCommand writes parquet backups straight from the local database,
// so it works without a running daemon.
func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var username string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's plants and import sessions to parquet files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--user is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.GetUserByName(cmd.Context(), username)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("unknown user %q", username)
			}

			result, err := export.New(st).Export(cmd.Context(), user.ID, outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d plants to %s\n", result.PlantCount, result.PlantsPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sessions to %s\n", result.SessionCount, result.SessionsPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write parquet files into")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Username whose data to export")
	return cmd
}
