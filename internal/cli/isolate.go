package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/isolation"
	"github.com/pratik-mahalle/soar/internal/services"
	"github.com/spf13/cobra"
)

// timeNow is replaced in tests
var timeNow = time.Now

func newIsolateCmd() *cobra.Command {
	var (
		file      string
		execute   bool
		timeScale float64
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "isolate",
		Short: "Derive, and optionally simulate, the isolation strategy for an incident",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readIncident(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			inc, err := incident.New(req, timeNow())
			if err != nil {
				return err
			}

			if !execute {
				strategy := isolation.Select(inc)
				if getOutputFormat() != "table" {
					return printOutput(strategy)
				}
				printStrategy(strategy)
				return nil
			}

			svc := services.NewIsolationService(services.NewSimulatedIsolator(timeScale), cliLogger(logLevel))
			result, err := svc.Execute(cmd.Context(), inc)
			if err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			printStrategy(result.Strategy)
			fmt.Printf("\nStatus: %s\n", formatStatus(string(result.Status)))
			table := NewTable("METHOD", "RESULT")
			for _, a := range result.Actions {
				res := a.Result
				if a.Error != "" {
					res = "error: " + a.Error
				}
				table.AddRow(string(a.Method), truncate(res, 60))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "incident file (JSON or YAML, - for stdin)")
	cmd.Flags().BoolVar(&execute, "execute", false, "run the strategy against the simulated isolator")
	cmd.Flags().Float64Var(&timeScale, "time-scale", 1.0, "multiplier for simulated delays")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printStrategy(s isolation.Strategy) {
	if s.Empty() {
		fmt.Println("No isolation applies")
		return
	}
	table := NewTable("METHOD", "TARGETS")
	for _, m := range s.Methods() {
		table.AddRow(string(m), truncate(strings.Join(s[m], ","), 70))
	}
	table.Render()
}
