package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pratik-mahalle/soar/internal/app"
	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/services"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		file        string
		out         string
		dbPath      string
		catalogPath string
		timeScale   float64
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process an incident with the local engine",
		Long: `Run enriches, isolates and remediates one incident in-process and
records the outcome in the local store.

Example:
  soar run -f incident.yaml --time-scale 0 -o result.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readIncident(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.Driver = "sqlite"
				cfg.Database.Path = dbPath
			}
			if cmd.Flags().Changed("catalog") {
				cfg.Engine.CatalogPath = catalogPath
			}
			if cmd.Flags().Changed("time-scale") {
				cfg.Engine.TimeScale = timeScale
			}
			// The retention worker belongs to the server
			cfg.Retention.Enabled = false

			engine, err := app.Open(cmd.Context(), cfg, cliLogger(logLevel))
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.Orchestrator.Process(cmd.Context(), req)
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeArtifact(out, result); err != nil {
					return err
				}
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}
			printResult(result)
			if out != "" {
				fmt.Printf("\nResult written to %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "incident file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the full result as JSON to this file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "playbook catalog YAML (overrides SOAR_CATALOG_PATH)")
	cmd.Flags().Float64Var(&timeScale, "time-scale", 1.0, "multiplier for simulated delays, 0 runs instantly")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "engine log level")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func writeArtifact(path string, result *services.IncidentResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func printResult(r *services.IncidentResult) {
	fmt.Printf("Incident:   %s\n", r.IncidentID)
	fmt.Printf("Severity:   %s\n", formatSeverity(string(r.Severity)))
	fmt.Printf("Source:     %s\n", r.SourceSystem)
	fmt.Printf("Status:     %s\n", formatStatus(string(r.Status)))
	if r.Error != "" {
		fmt.Printf("Error:      %s (%s)\n", r.Error, r.ErrorKind)
	}
	fmt.Printf("MTTR:       %.2f min\n", r.MTTRMinutes)
	if r.ThreatIntel != nil {
		fmt.Printf("Confidence: %.2f\n", r.ThreatIntel.ConfidenceScore)
	}

	if r.IsolationResult != nil && len(r.IsolationResult.Actions) > 0 {
		fmt.Println("\nIsolation:")
		table := NewTable("METHOD", "TARGETS", "RESULT")
		for _, a := range r.IsolationResult.Actions {
			result := a.Result
			if a.Error != "" {
				result = "error: " + a.Error
			}
			table.AddRow(string(a.Method), fmt.Sprintf("%d", len(a.Targets)), truncate(result, 50))
		}
		table.Render()
	}

	if pb := r.PlaybookResult; pb != nil {
		fmt.Printf("\nPlaybook:   %s (score %.2f)\n", pb.Playbook, pb.Score)
		table := NewTable("STEP", "ACTION", "PARALLEL", "STATUS", "DURATION", "DETAIL")
		for _, e := range pb.ActionsLog {
			detail := e.Reason
			if e.Error != "" {
				detail = e.Error
			}
			table.AddRow(
				fmt.Sprintf("%d", e.Step),
				truncate(e.Action, 34),
				formatBool(e.Parallel),
				formatStatus(string(e.Status)),
				fmt.Sprintf("%dms", e.DurationMS),
				truncate(detail, 40),
			)
		}
		table.Render()
	}

	if p := r.Performance; p != nil {
		fmt.Printf("\nMTTR target %.1f min, achieved %.2f min, ratio %.2f\n",
			p.MTTRTarget, p.MTTRAchieved, p.PerformanceRatio)
	}
}
