package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Check server health and show the dashboard",
		Annotations: remote(),
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := apiClient.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			if getOutputFormat() != "table" {
				dash, err := apiClient.Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				return printOutput(map[string]interface{}{
					"health":    health,
					"dashboard": dash,
				})
			}

			fmt.Printf("Server:          %s\n", apiClient.BaseURL())
			fmt.Printf("Health:          %s\n", formatStatus(health.Status))
			if health.Database != "" {
				fmt.Printf("Database:        %s\n", formatStatus(health.Database))
			}

			dash, err := apiClient.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println()
			printDashboard(dash)
			return nil
		},
	}
}
