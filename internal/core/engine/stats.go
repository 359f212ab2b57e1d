package engine

import (
	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// ComputeStats summarises a completion history. Consistency covers the
// windowDays calendar days ending on ref, inclusive; windowDays <= 0 uses
// domain.DefaultConsistencyWindow.
func ComputeStats(records []domain.CompletionRecord, windowDays int, ref civil.Date) domain.Stats {
	if windowDays <= 0 {
		windowDays = domain.DefaultConsistencyWindow
	}
	windowStart := ref.AddDays(-(windowDays - 1))

	history := domain.NewCompletionLog(records)

	var stats domain.Stats
	inWindow := 0
	for _, r := range history.Records() {
		if !r.Completed {
			continue
		}
		stats.TotalCompletions++
		if r.Value != nil {
			stats.TotalTimeInvested += *r.Value
		}
		if !r.Date.Before(windowStart) && !r.Date.After(ref) {
			inWindow++
		}
	}

	stats.SuccessRate = float64(stats.TotalCompletions) / float64(max(1, history.Len())) * 100
	stats.Consistency = float64(inWindow) / float64(windowDays) * 100
	return stats
}
