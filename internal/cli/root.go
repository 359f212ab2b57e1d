// Package cli implements kansoctl, which evaluates a YAML plan of habits and
// tasks offline against a fixed reference date.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

type RootOptions struct {
	PlanPath string
	// Today is the reference date for streaks and stats, YYYY-MM-DD. Empty
	// means the current UTC date.
	Today             string
	Format            string
	WindowDays        int
	PriorityThreshold string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kansoctl",
		Short: "Evaluate a habit and task plan offline",
		Long: `kansoctl loads a YAML plan of habits, tasks and completions into memory
and answers scheduling questions about it: what is due, what the agenda
looks like, and how streaks and completion rates stand on a given day.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.PlanPath == "" {
				return fmt.Errorf("--plan is required")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.PlanPath, "plan", "p", "", "path to the YAML plan file")
	cmd.PersistentFlags().StringVar(&opts.Today, "today", "", "reference date YYYY-MM-DD (default: current UTC date)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.WindowDays, "window", 30, "consistency window in days")
	cmd.PersistentFlags().StringVar(&opts.PriorityThreshold, "priority-threshold", "Alta", "lowest priority of undated tasks always on the agenda")

	cmd.AddCommand(NewDueCommand(opts))
	cmd.AddCommand(NewAgendaCommand(opts))
	cmd.AddCommand(NewStreakCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}
