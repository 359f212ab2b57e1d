package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type PostgresCompletionRepository struct {
	db *sqlx.DB
}

func NewPostgresCompletionRepository(db *sqlx.DB) *PostgresCompletionRepository {
	return &PostgresCompletionRepository{db: db}
}

const completionColumns = `id, habit_id, user_id, date, completed, value, notes, version, created_at, updated_at`

type completionRow struct {
	ID        string          `db:"id"`
	HabitID   string          `db:"habit_id"`
	UserID    string          `db:"user_id"`
	Date      dbDate          `db:"date"`
	Completed bool            `db:"completed"`
	Value     sql.NullFloat64 `db:"value"`
	Notes     string          `db:"notes"`
	Version   int             `db:"version"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r completionRow) toDomain() domain.CompletionRecord {
	rec := domain.CompletionRecord{
		ID:        r.ID,
		HabitID:   r.HabitID,
		UserID:    r.UserID,
		Date:      r.Date.Date,
		Completed: r.Completed,
		Notes:     r.Notes,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Value.Valid {
		v := r.Value.Float64
		rec.Value = &v
	}
	return rec
}

func toRecords(rows []completionRow) []domain.CompletionRecord {
	out := make([]domain.CompletionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

// Upsert relies on the (habit_id, date) unique key. On conflict the stored
// row keeps its id and created_at.
func (r *PostgresCompletionRepository) Upsert(ctx context.Context, rec *domain.CompletionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	var value sql.NullFloat64
	if rec.Value != nil {
		value = sql.NullFloat64{Float64: *rec.Value, Valid: true}
	}

	query := `
		INSERT INTO completions (
			id, habit_id, user_id, date, completed, value, notes,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (habit_id, date) DO UPDATE SET
			completed  = EXCLUDED.completed,
			value      = EXCLUDED.value,
			notes      = EXCLUDED.notes,
			version    = GREATEST(EXCLUDED.version, completions.version + 1),
			updated_at = EXCLUDED.updated_at
		RETURNING id, version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.HabitID, rec.UserID, dateArg(rec.Date), rec.Completed, value, rec.Notes,
		rec.Version, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%w: referenced habit or user does not exist", domain.ErrHabitNotFound)
		}
		return fmt.Errorf("upsert completion failed: %w", err)
	}
	return nil
}

func (r *PostgresCompletionRepository) GetByDate(ctx context.Context, habitID string, date civil.Date) (*domain.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM completions WHERE habit_id = $1 AND date = $2`

	var row completionRow
	if err := r.db.GetContext(ctx, &row, query, habitID, dateArg(date)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCompletionNotFound
		}
		return nil, err
	}
	rec := row.toDomain()
	return &rec, nil
}

func (r *PostgresCompletionRepository) ListByHabitID(ctx context.Context, habitID string) ([]domain.CompletionRecord, error) {
	query := `
		SELECT ` + completionColumns + ` FROM completions
		WHERE habit_id = $1
		ORDER BY date ASC`

	var rows []completionRow
	if err := r.db.SelectContext(ctx, &rows, query, habitID); err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (r *PostgresCompletionRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.CompletionRecord, error) {
	query := `
		SELECT ` + completionColumns + ` FROM completions
		WHERE user_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date ASC`

	var rows []completionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, dateArg(from), dateArg(to)); err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (r *PostgresCompletionRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]domain.CompletionRecord, error) {
	query := `
		SELECT ` + completionColumns + ` FROM completions
		WHERE user_id = $1
		  AND updated_at > $2
		ORDER BY updated_at ASC`

	var rows []completionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}
