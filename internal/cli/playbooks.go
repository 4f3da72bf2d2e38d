package cli

import (
	"fmt"
	"strings"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/spf13/cobra"
)

var catalogFlag string

func newPlaybooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playbooks",
		Aliases: []string{"playbook", "pb"},
		Short:   "Inspect the playbook catalog",
	}

	cmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "playbook catalog YAML (default built-in)")

	cmd.AddCommand(newPlaybooksListCmd())
	cmd.AddCommand(newPlaybooksShowCmd())
	cmd.AddCommand(newPlaybooksScoreCmd())

	return cmd
}

func newPlaybooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := playbook.LoadOrDefault(catalogFlag)
			if err != nil {
				return err
			}

			all := catalog.All()
			if getOutputFormat() != "table" {
				return printOutput(all)
			}

			table := NewTable("NAME", "SEVERITY", "AUTOMATION", "ACTIONS", "MTTR TARGET", "TRIGGERS")
			for _, p := range all {
				table.AddRow(
					p.Name,
					formatSeverity(string(p.Severity)),
					string(p.AutomationLevel),
					fmt.Sprintf("%d", len(p.Actions)),
					p.MTTRTarget.String(),
					truncate(strings.Join(p.TriggerKeywords, ","), 50),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPlaybooksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a playbook's actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := playbook.LoadOrDefault(catalogFlag)
			if err != nil {
				return err
			}

			p, ok := catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("playbook %s not found", args[0])
			}
			if getOutputFormat() != "table" {
				return printOutput(p)
			}

			fmt.Printf("Name:          %s\n", p.Name)
			if p.Description != "" {
				fmt.Printf("Description:   %s\n", p.Description)
			}
			fmt.Printf("Severity:      %s\n", formatSeverity(string(p.Severity)))
			fmt.Printf("Automation:    %s\n", p.AutomationLevel)
			fmt.Printf("Triggers:      %s\n", strings.Join(p.TriggerKeywords, ", "))
			fmt.Printf("Max execution: %s\n", p.MaxExecutionTime)
			fmt.Printf("MTTR target:   %s\n\n", p.MTTRTarget)

			table := NewTable("STEP", "ACTION", "TIMEOUT", "CRITICAL", "PARALLEL", "CONDITION")
			for _, a := range p.Actions {
				table.AddRow(
					fmt.Sprintf("%d", a.Step),
					a.Name,
					a.Timeout.String(),
					formatBool(a.CriticalPath),
					formatBool(a.ParallelExecution),
					a.Condition,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPlaybooksScoreCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every playbook against an incident without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readIncident(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			catalog, err := playbook.LoadOrDefault(catalogFlag)
			if err != nil {
				return err
			}
			inc, err := incident.New(req, timeNow())
			if err != nil {
				return err
			}

			scores := playbook.ScoreAll(catalog, inc)
			if getOutputFormat() != "table" {
				return printOutput(scores)
			}

			table := NewTable("PLAYBOOK", "SCORE", "KEYWORDS", "SEVERITY", "ASSETS")
			for _, s := range scores {
				table.AddRow(
					s.Playbook,
					fmt.Sprintf("%.2f", s.Score),
					strings.Join(s.MatchedKeywords, ","),
					formatBool(s.SeverityMatch),
					formatBool(s.AssetBonus),
				)
			}
			table.Render()

			if len(scores) > 0 && scores[0].Score > 0 {
				fmt.Printf("\nSelected: %s\n", scores[0].Playbook)
			} else {
				fmt.Println("\nNo playbook matched")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "incident file (JSON or YAML, - for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
