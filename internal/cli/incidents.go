package cli

import (
	"fmt"
	"strings"

	"github.com/pratik-mahalle/soar/pkg/client"
	"github.com/spf13/cobra"
)

func newIncidentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "incidents",
		Aliases:     []string{"incident", "inc"},
		Short:       "Submit and inspect incidents on the API server",
		Annotations: remote(),
	}

	cmd.AddCommand(newIncidentsListCmd())
	cmd.AddCommand(newIncidentsGetCmd())
	cmd.AddCommand(newIncidentsSubmitCmd())
	cmd.AddCommand(newIncidentsStatsCmd())

	return cmd
}

func newIncidentsListCmd() *cobra.Command {
	var (
		severity string
		status   string
		source   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.IncidentListOptions{
				ListOptions:  client.ListOptions{Page: page, PageSize: pageSize},
				Severity:     strings.ToUpper(severity),
				Status:       strings.ToUpper(status),
				SourceSystem: source,
			}

			result, err := apiClient.Incidents().List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			if len(result.Data) == 0 {
				fmt.Println("No incidents found.")
				return nil
			}

			table := NewTable("ID", "SEVERITY", "SOURCE", "STATUS", "MTTR", "TIMESTAMP")
			for _, inc := range result.Data {
				table.AddRow(
					inc.IncidentID,
					formatSeverity(inc.Severity),
					truncate(inc.SourceSystem, 24),
					formatStatus(inc.Status),
					fmt.Sprintf("%.2fm", inc.MTTRMinutes),
					inc.Timestamp.Format("2006-01-02 15:04:05"),
				)
			}
			table.Render()
			fmt.Printf("\nPage %d/%d (%d total)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity (CRITICAL, HIGH, MEDIUM, LOW)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (COMPLETED, FAILED)")
	cmd.Flags().StringVar(&source, "source", "", "filter by source system")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "items per page")

	return cmd
}

func newIncidentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a processed incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inc, err := apiClient.Incidents().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(inc)
			}

			fmt.Printf("ID:         %s\n", inc.IncidentID)
			fmt.Printf("Timestamp:  %s\n", inc.Timestamp.Format("2006-01-02 15:04:05"))
			fmt.Printf("Severity:   %s\n", formatSeverity(inc.Severity))
			fmt.Printf("Source:     %s\n", inc.SourceSystem)
			fmt.Printf("Assets:     %s\n", strings.Join(inc.AffectedAssets, ", "))
			fmt.Printf("Status:     %s\n", formatStatus(inc.Status))
			fmt.Printf("MTTR:       %.2f min\n", inc.MTTRMinutes)
			if inc.ThreatIntel != nil {
				fmt.Printf("Confidence: %.2f\n", inc.ThreatIntel.ConfidenceScore)
			}
			if inc.Error != "" {
				fmt.Printf("Error:      %s (%s)\n", inc.Error, inc.ErrorKind)
			}
			return nil
		},
	}
}

func newIncidentsSubmitCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an incident for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readIncident(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := apiClient.Incidents().Submit(cmd.Context(), &client.IncidentRequest{
				Severity:          req.Severity,
				SourceSystem:      req.SourceSystem,
				AffectedAssets:    req.AffectedAssets,
				Indicators:        req.Indicators,
				AutomatedResponse: req.AutomatedResponse,
			})
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			fmt.Printf("Incident %s %s in %.2f min\n",
				result.IncidentID, formatStatus(result.Status), result.MTTRMinutes)
			if pb := result.PlaybookResult; pb != nil {
				fmt.Printf("Playbook %s (score %.2f), %d actions\n", pb.Playbook, pb.Score, len(pb.ActionsLog))
			}
			if result.Error != "" {
				fmt.Printf("Error: %s (%s)\n", result.Error, result.ErrorKind)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "incident file (JSON or YAML, - for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newIncidentsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show incident counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Incidents().Stats(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			table := NewTable("TOTAL", "COMPLETED", "FAILED")
			table.AddRow(
				fmt.Sprintf("%d", stats.Total),
				fmt.Sprintf("%d", stats.Completed),
				fmt.Sprintf("%d", stats.Failed),
			)
			table.Render()
			return nil
		},
	}
}
