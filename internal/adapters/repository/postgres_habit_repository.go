package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

const habitColumns = `
    id, user_id, title, description, color, icon, sort_order,
    type, reminder_time, recurrence, target_value, unit,
    start_date, end_date,
    current_streak, best_streak, last_completion_date,
    total_completions, success_rate, total_time_invested, consistency,
    version, created_at, updated_at, archived_at, deleted_at`

type habitRow struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Color        string          `db:"color"`
	Icon         string          `db:"icon"`
	SortOrder    int             `db:"sort_order"`
	Type         string          `db:"type"`
	ReminderTime sql.NullString  `db:"reminder_time"`
	Recurrence   domain.Schedule `db:"recurrence"`
	TargetValue  int             `db:"target_value"`
	Unit         string          `db:"unit"`
	StartDate    dbDate          `db:"start_date"`
	EndDate      dbDate          `db:"end_date"`

	CurrentStreak      int     `db:"current_streak"`
	BestStreak         int     `db:"best_streak"`
	LastCompletionDate dbDate  `db:"last_completion_date"`
	TotalCompletions   int     `db:"total_completions"`
	SuccessRate        float64 `db:"success_rate"`
	TotalTimeInvested  float64 `db:"total_time_invested"`
	Consistency        float64 `db:"consistency"`

	Version    int          `db:"version"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	ArchivedAt sql.NullTime `db:"archived_at"`
	DeletedAt  sql.NullTime `db:"deleted_at"`
}

func (r habitRow) toDomain() *domain.Habit {
	h := &domain.Habit{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
		SortOrder:   r.SortOrder,
		Type:        r.Type,
		Recurrence:  r.Recurrence,
		TargetValue: r.TargetValue,
		Unit:        r.Unit,
		StartDate:   r.StartDate.Date,
		EndDate:     r.EndDate.Ptr(),
		Streak: domain.Streak{
			Current:            r.CurrentStreak,
			Best:               r.BestStreak,
			LastCompletionDate: r.LastCompletionDate.Ptr(),
		},
		Stats: domain.Stats{
			TotalCompletions:  r.TotalCompletions,
			SuccessRate:       r.SuccessRate,
			TotalTimeInvested: r.TotalTimeInvested,
			Consistency:       r.Consistency,
		},
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		ArchivedAt: timePtr(r.ArchivedAt),
		DeletedAt:  timePtr(r.DeletedAt),
	}
	if r.ReminderTime.Valid {
		reminder := r.ReminderTime.String
		h.ReminderTime = &reminder
	}
	return h
}

func toHabitRows(rows []habitRow) []*domain.Habit {
	habits := make([]*domain.Habit, 0, len(rows))
	for _, row := range rows {
		habits = append(habits, row.toDomain())
	}
	return habits
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	query := `
        INSERT INTO habits (
            id, user_id, title, description, color, icon, sort_order,
            type, reminder_time, recurrence, target_value, unit,
            start_date, end_date, archived_at,
            version, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11, $12,
            $13, $14, $15,
            1, $16, $17
        )`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Title, h.Description, h.Color, h.Icon, h.SortOrder,
		h.Type, h.ReminderTime, h.Recurrence, h.TargetValue, h.Unit,
		dateArg(h.StartDate), dateArgPtr(h.EndDate), nullTime(h.ArchivedAt),
		h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: habit %s already exists", domain.ErrHabitConflict, h.ID)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: user %s does not exist", domain.ErrUnauthorized, h.UserID)
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	h.Version = 1
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND deleted_at IS NULL`

	var row habitRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return row.toDomain(), nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE user_id = $1 AND deleted_at IS NULL
        ORDER BY sort_order ASC, created_at DESC`

	var rows []habitRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return toHabitRows(rows), nil
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	query := `
        UPDATE habits SET
            title=$1, description=$2, color=$3, icon=$4, sort_order=$5,
            type=$6, reminder_time=$7, recurrence=$8, target_value=$9, unit=$10,
            start_date=$11, end_date=$12, archived_at=$13,
            updated_at=NOW(), version = version + 1
        WHERE id=$14 AND version=$15 AND deleted_at IS NULL
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		h.Title, h.Description, h.Color, h.Icon, h.SortOrder,
		h.Type, h.ReminderTime, h.Recurrence, h.TargetValue, h.Unit,
		dateArg(h.StartDate), dateArgPtr(h.EndDate), nullTime(h.ArchivedAt),
		h.ID, h.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time

	err := row.Scan(&newVersion, &newUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existsQuery := `SELECT count(*) FROM habits WHERE id = $1 AND deleted_at IS NULL`
			var count int
			if checkErr := r.db.QueryRowContext(ctx, existsQuery, h.ID).Scan(&count); checkErr != nil {
				return fmt.Errorf("existence check failed: %w", checkErr)
			}

			if count == 0 {
				return domain.ErrHabitNotFound
			}
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	h.Version = newVersion
	h.UpdatedAt = newUpdatedAt

	return nil
}

// UpdateProgress rewrites the derived columns only. updated_at moves so the
// new values reach clients through GetChanges; version does not.
func (r *PostgresHabitRepository) UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error {
	query := `
        UPDATE habits SET
            current_streak=$1, best_streak=$2, last_completion_date=$3,
            total_completions=$4, success_rate=$5, total_time_invested=$6, consistency=$7,
            updated_at=NOW()
        WHERE id=$8 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query,
		streak.Current, streak.Best, dateArgPtr(streak.LastCompletionDate),
		stats.TotalCompletions, stats.SuccessRate, stats.TotalTimeInvested, stats.Consistency,
		id,
	)
	if err != nil {
		return fmt.Errorf("progress update failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	query := `
        UPDATE habits
        SET deleted_at = NOW(), updated_at = NOW(), version = version + 1
        WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

// GetChanges includes soft-deleted rows so clients learn about deletions.
func (r *PostgresHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE user_id = $1 AND updated_at > $2
        ORDER BY updated_at ASC`

	var rows []habitRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		return nil, fmt.Errorf("sync query error: %w", err)
	}

	return toHabitRows(rows), nil
}
