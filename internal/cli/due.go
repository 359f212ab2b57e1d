package cli

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
)

type dueRow struct {
	ID    string          `json:"id"`
	Kind  domain.ItemKind `json:"kind"`
	Title string          `json:"title"`
	Due   bool            `json:"due"`
	Error string          `json:"error,omitempty"`
}

func NewDueCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Report which habits and recurring tasks fall on a date",
		Long: `Evaluate every habit and task recurrence on one date. Habits outside
their start/end window and archived habits are never due; tasks without
a recurrence are due on their due date, else their start date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			target, err := dateFlag("date", date, ws.today)
			if err != nil {
				return err
			}

			rows, err := dueRows(cmd, ws, target)
			if err != nil {
				return err
			}
			return printDue(newPrinter(rootOpts.Format, cmd.OutOrStdout()), target, rows)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to evaluate YYYY-MM-DD (default: --today)")
	return cmd
}

func dueRows(cmd *cobra.Command, ws *workspace, target civil.Date) ([]dueRow, error) {
	ctx := cmd.Context()

	habits, err := ws.habits.ListByUserID(ctx, localUser)
	if err != nil {
		return nil, err
	}
	tasks, err := ws.tasks.ListByUserID(ctx, localUser)
	if err != nil {
		return nil, err
	}

	rows := make([]dueRow, 0, len(habits)+len(tasks))
	for _, h := range habits {
		row := dueRow{ID: h.ID, Kind: domain.ItemHabit, Title: h.Title}
		inWindow := !target.Before(h.StartDate) && (h.EndDate == nil || !target.After(*h.EndDate))
		if h.ArchivedAt == nil && inWindow {
			row.Due, err = engine.IsDue(h.Recurrence.Recurrence, h.StartDate, target, ws.holidays)
			if err != nil {
				row.Error = err.Error()
			}
		}
		rows = append(rows, row)
	}

	for _, t := range tasks {
		row := dueRow{ID: t.ID, Kind: domain.ItemTask, Title: t.Title}
		row.Due, err = engine.DueOn(t.AgendaItem(), target, ws.holidays)
		if err != nil {
			row.Error = err.Error()
		}
		rows = append(rows, row)
	}

	if errs := rowErrors(rows); errs != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", errs)
	}
	return rows, nil
}

func rowErrors(rows []dueRow) error {
	var errs []error
	for _, r := range rows {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("%s %s: %s", r.Kind, r.ID, r.Error))
		}
	}
	return errors.Join(errs...)
}

func printDue(p *printer, target civil.Date, rows []dueRow) error {
	if p.json() {
		return p.writeJSON(struct {
			Date  civil.Date `json:"date"`
			Items []dueRow   `json:"items"`
		}{target, rows})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		due := "no"
		switch {
		case r.Error != "":
			due = "invalid"
		case r.Due:
			due = "yes"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", r.Kind, r.ID, r.Title, due))
	}
	fmt.Fprintf(p.w, "Due on %s (%s)\n", target, target.In(time.UTC).Weekday())
	return p.table("KIND\tID\tTITLE\tDUE", lines)
}
