package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlantsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plants",
		Short: "Inspect your plant catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newPlantsListCommand(ctx))
	return cmd
}

func newPlantsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your plants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			plants, err := client.ListPlants(cmd.Context())
			if err != nil {
				return err
			}
			if len(plants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plants yet")
				return nil
			}
			rows := make([][]string, 0, len(plants))
			for _, plant := range plants {
				needsWater := ""
				if plant.NeedsWater {
					needsWater = "yes"
				}
				rows = append(rows, []string{
					fmt.Sprint(plant.ID),
					plant.Name,
					plant.Species,
					fmt.Sprintf("%dd", plant.WateringIntervalDays),
					needsWater,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Species", "Watering", "Needs Water"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
