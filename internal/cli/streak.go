package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func NewStreakCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "streak [habit-id...]",
		Short: "Show current and best streaks as of --today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}

			progress, err := habitProgress(cmd, ws, args)
			if err != nil {
				return err
			}

			p := newPrinter(rootOpts.Format, cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(progress)
			}

			lines := make([]string, 0, len(progress))
			for _, hp := range progress {
				last := "-"
				if hp.Streak.LastCompletionDate != nil {
					last = hp.Streak.LastCompletionDate.String()
				}
				lines = append(lines, fmt.Sprintf("%s\t%s\t%d\t%d\t%s",
					hp.HabitID, hp.Title, hp.Streak.Current, hp.Streak.Best, last))
			}
			fmt.Fprintf(p.w, "Streaks as of %s\n", ws.today)
			return p.table("ID\tTITLE\tCURRENT\tBEST\tLAST DONE", lines)
		},
	}
}

// habitProgress recomputes progress for the named habits, or for all of
// them when ids is empty.
func habitProgress(cmd *cobra.Command, ws *workspace, ids []string) ([]domain.HabitProgress, error) {
	ctx := cmd.Context()

	if len(ids) == 0 {
		habits, err := ws.habits.ListByUserID(ctx, localUser)
		if err != nil {
			return nil, err
		}
		for _, h := range habits {
			ids = append(ids, h.ID)
		}
	}

	out := make([]domain.HabitProgress, 0, len(ids))
	for _, id := range ids {
		hp, err := ws.stats.GetHabitProgress(ctx, id, localUser)
		if err != nil {
			return nil, fmt.Errorf("habit %s: %w", id, err)
		}
		out = append(out, *hp)
	}
	return out, nil
}
