package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type statsReport struct {
	Range    *domain.WeeklyStats    `json:"range"`
	Progress []domain.HabitProgress `json:"progress"`
}

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion rates over a range and overall progress",
		Long: `Summarise every habit over [--from, --to], counting only the days each
habit was due, followed by its all-time totals and the consistency over
the trailing --window days ending --today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			end, err := dateFlag("to", to, ws.today)
			if err != nil {
				return err
			}
			start, err := dateFlag("from", from, end.AddDays(-6))
			if err != nil {
				return err
			}
			if start.After(end) {
				return fmt.Errorf("--from %s is after --to %s", start, end)
			}

			weekly, err := ws.stats.GetWeeklyStats(cmd.Context(), domain.StatsInput{
				UserID:    localUser,
				StartDate: start,
				EndDate:   end,
			})
			if err != nil {
				return err
			}
			progress, err := habitProgress(cmd, ws, nil)
			if err != nil {
				return err
			}

			return printStats(newPrinter(rootOpts.Format, cmd.OutOrStdout()), statsReport{Range: weekly, Progress: progress})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD (default: six days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD (default: --today)")
	return cmd
}

func printStats(p *printer, report statsReport) error {
	if p.json() {
		return p.writeJSON(report)
	}

	r := report.Range
	fmt.Fprintf(p.w, "%s to %s: %s of scheduled days completed\n", r.StartDate, r.EndDate, percent(r.OverallRate))

	lines := make([]string, 0, len(r.HabitStats))
	for _, hs := range r.HabitStats {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d/%d\t%s",
			hs.HabitID, hs.HabitTitle, hs.DaysCompleted, hs.DaysScheduled, percent(hs.CompletionRate)))
	}
	if err := p.table("ID\tTITLE\tDONE\tRATE", lines); err != nil {
		return err
	}

	fmt.Fprintln(p.w)
	lines = lines[:0]
	for _, hp := range report.Progress {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d\t%s\t%s",
			hp.HabitID, hp.Title, hp.Stats.TotalCompletions, percent(hp.Stats.SuccessRate), percent(hp.Stats.Consistency)))
	}
	return p.table("ID\tTITLE\tTOTAL\tSUCCESS\tCONSISTENCY", lines)
}
