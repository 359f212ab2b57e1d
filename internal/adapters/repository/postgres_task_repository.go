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

type PostgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const taskColumns = `
    id, user_id, title, description, priority, start_date, due_date,
    recurrence, completed_at, version, created_at, updated_at, deleted_at`

type taskRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Priority    string          `db:"priority"`
	StartDate   dbDate          `db:"start_date"`
	DueDate     dbDate          `db:"due_date"`
	Recurrence  domain.Schedule `db:"recurrence"`
	CompletedAt sql.NullTime    `db:"completed_at"`
	Version     int             `db:"version"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	DeletedAt   sql.NullTime    `db:"deleted_at"`
}

func (r taskRow) toDomain() (*domain.Task, error) {
	priority, err := domain.ParsePriority(r.Priority)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", r.ID, err)
	}
	return &domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    priority,
		StartDate:   r.StartDate.Ptr(),
		DueDate:     r.DueDate.Ptr(),
		Recurrence:  r.Recurrence,
		CompletedAt: timePtr(r.CompletedAt),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   timePtr(r.DeletedAt),
	}, nil
}

func toTasks(rows []taskRow) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
        INSERT INTO tasks (
            id, user_id, title, description, priority, start_date, due_date,
            recurrence, completed_at, version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Priority.String(),
		dateArgPtr(t.StartDate), dateArgPtr(t.DueDate),
		t.Recurrence, nullTime(t.CompletedAt), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: task %s already exists", domain.ErrTaskConflict, t.ID)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: user %s does not exist", domain.ErrUnauthorized, t.UserID)
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}

	t.Version = 1
	return nil
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`

	var row taskRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return row.toDomain()
}

func (r *PostgresTaskRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	query := `
        SELECT ` + taskColumns + ` FROM tasks
        WHERE user_id = $1 AND deleted_at IS NULL
        ORDER BY created_at ASC`

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return toTasks(rows)
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	query := `
        UPDATE tasks SET
            title=$1, description=$2, priority=$3, start_date=$4, due_date=$5,
            recurrence=$6, completed_at=$7,
            updated_at=NOW(), version = version + 1
        WHERE id=$8 AND version=$9 AND deleted_at IS NULL
        RETURNING version, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Priority.String(), dateArgPtr(t.StartDate), dateArgPtr(t.DueDate),
		t.Recurrence, nullTime(t.CompletedAt),
		t.ID, t.Version,
	).Scan(&t.Version, &t.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update query failed: %w", err)
	}

	var count int
	if checkErr := r.db.GetContext(ctx, &count, `SELECT count(*) FROM tasks WHERE id = $1 AND deleted_at IS NULL`, t.ID); checkErr != nil {
		return fmt.Errorf("existence check failed: %w", checkErr)
	}
	if count == 0 {
		return domain.ErrTaskNotFound
	}
	return domain.ErrTaskConflict
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	query := `
        UPDATE tasks
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
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresTaskRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Task, error) {
	query := `
        SELECT ` + taskColumns + ` FROM tasks
        WHERE user_id = $1 AND updated_at > $2
        ORDER BY updated_at ASC`

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		return nil, fmt.Errorf("sync query error: %w", err)
	}
	return toTasks(rows)
}
