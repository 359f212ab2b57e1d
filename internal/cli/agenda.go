package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

func NewAgendaCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		date string
		days int
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show the agenda for one or more days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > services.MaxAgendaRange {
				return fmt.Errorf("--days must be between 1 and %d (got %d)", services.MaxAgendaRange, days)
			}

			ws, err := openWorkspace(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			from, err := dateFlag("date", date, ws.today)
			if err != nil {
				return err
			}

			agenda, err := ws.agenda.ForRange(cmd.Context(), localUser, from, from.AddDays(days-1))
			if err != nil {
				return err
			}
			return printAgenda(newPrinter(rootOpts.Format, cmd.OutOrStdout()), agenda)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "first day YYYY-MM-DD (default: --today)")
	cmd.Flags().IntVar(&days, "days", 1, "number of days to show")
	return cmd
}

func printAgenda(p *printer, agenda []services.AgendaDay) error {
	if p.json() {
		return p.writeJSON(agenda)
	}

	for i, day := range agenda {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintf(p.w, "%s (%s)\n", day.Date, day.Date.In(time.UTC).Weekday())
		if len(day.Entries) == 0 {
			fmt.Fprintln(p.w, "  nothing scheduled")
			continue
		}

		lines := make([]string, 0, len(day.Entries))
		for _, e := range day.Entries {
			lines = append(lines, fmt.Sprintf("  %s\t%s\t%s\t%s\t%s",
				checkbox(e.Item.Completed), e.Item.Kind, e.Item.ID, e.Item.Title, entryNote(e)))
		}
		if err := p.table("  DONE\tKIND\tID\tTITLE\tWHY", lines); err != nil {
			return err
		}
	}
	return nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func entryNote(e engine.AgendaEntry) string {
	note := string(e.Reason)
	if e.Reason == engine.ReasonPriority {
		note += " (" + e.Item.Priority.String() + ")"
	}
	if e.Overdue && e.Item.DueDate != nil {
		note += " since " + e.Item.DueDate.String()
	}
	if e.Fallback {
		note += ", invalid pattern"
	}
	return note
}
