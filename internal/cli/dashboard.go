package cli

import (
	"fmt"

	"github.com/pratik-mahalle/soar/pkg/client"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "dashboard",
		Short:       "Show response performance metrics",
		Annotations: remote(),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := apiClient.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(dash)
			}
			printDashboard(dash)
			return nil
		},
	}
}

func printDashboard(d *client.Dashboard) {
	fmt.Printf("Status:          %s\n", formatStatus(d.Status))
	fmt.Printf("Incidents:       %d\n", d.Incidents.Total)
	fmt.Printf("Avg MTTR:        %.2f min\n", d.Incidents.AvgMTTRMinutes)
	fmt.Printf("Success rate:    %.1f%%\n", d.Incidents.SuccessRate)
	fmt.Printf("Automation rate: %.1f%%\n", d.Incidents.AutomationRate)
	fmt.Printf("MTTR target:     %.1f min (performance %.2f)\n",
		d.Performance.MTTRTarget, d.Performance.MTTRPerformance)
	fmt.Printf("Last updated:    %s\n", d.LastUpdated.Format("2006-01-02 15:04:05"))
}
