package domain

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
)

var (
	ErrCompletionNotFound = errors.New("completion record not found")
	ErrCompletionConflict = errors.New("completion record version conflict")
)

type CompletionRepository interface {
	// Upsert writes the record for (habit, date), replacing any record already
	// stored for that date. There is never more than one record per date.
	Upsert(ctx context.Context, record *CompletionRecord) error

	// GetByDate retrieves the record a habit has for one date.
	GetByDate(ctx context.Context, habitID string, date civil.Date) (*CompletionRecord, error)

	// ListByHabitID returns the full history of a habit, oldest first.
	ListByHabitID(ctx context.Context, habitID string) ([]CompletionRecord, error)

	// ListByUserIDAndDateRange returns every record of a user within [from, to].
	// This is optimized for UI views like calendars or charts.
	ListByUserIDAndDateRange(ctx context.Context, userID string, from, to civil.Date) ([]CompletionRecord, error)

	// GetChanges [SYNC ENGINE] Returns all records written after the 'since'
	// timestamp. Crucial for offline-first synchronization.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]CompletionRecord, error)
}
