package engine

import (
	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// completedDates returns the dates with a completed record, oldest first.
// Duplicate dates resolve to the last record given.
func completedDates(records []domain.CompletionRecord) []civil.Date {
	var dates []civil.Date
	for _, r := range domain.NewCompletionLog(records).Records() {
		if r.Completed {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// ComputeStreak derives the current and best run of consecutive completed
// days. An uncompleted today does not break the current streak; the walk
// starts from yesterday instead.
func ComputeStreak(records []domain.CompletionRecord, today civil.Date) domain.Streak {
	dates := completedDates(records)
	if len(dates) == 0 {
		return domain.Streak{}
	}

	done := make(map[civil.Date]struct{}, len(dates))
	for _, d := range dates {
		done[d] = struct{}{}
	}

	cursor := today
	if _, ok := done[cursor]; !ok {
		cursor = cursor.AddDays(-1)
	}
	current := 0
	for {
		if _, ok := done[cursor]; !ok {
			break
		}
		current++
		cursor = cursor.AddDays(-1)
	}

	best, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].DaysSince(dates[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	if current > best {
		best = current
	}

	last := dates[len(dates)-1]
	return domain.Streak{
		Current:            current,
		Best:               best,
		LastCompletionDate: &last,
	}
}
