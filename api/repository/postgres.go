package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mzimer/vidmore/api/database"
	"github.com/mzimer/vidmore/api/models"
)

const taskColumns = `id, owner_id, video_url, action, status, error_message, created_at, claimed_at, completed_at`

type PostgresRepo struct {
	db *database.DB
}

func NewPostgresRepo(db *database.DB) Repository {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) RegisterUser(ctx context.Context, externalID string) (*models.User, error) {
	// The no-op DO UPDATE makes registration idempotent while still
	// returning the row for an already registered user.
	query := `
		INSERT INTO users (external_id)
		VALUES ($1)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING id, external_id, approval_state, created_at
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query, externalID).Scan(
		&user.ID,
		&user.ExternalID,
		&user.ApprovalState,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepo) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `
		SELECT id, external_id, approval_state, created_at
		FROM users
		WHERE external_id = $1
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query, externalID).Scan(
		&user.ID,
		&user.ExternalID,
		&user.ApprovalState,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepo) UpdateUserStatus(ctx context.Context, externalID string, state models.ApprovalState) (*models.User, error) {
	query := `
		UPDATE users
		SET approval_state = $1
		WHERE external_id = $2
		RETURNING id, external_id, approval_state, created_at
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query, state, externalID).Scan(
		&user.ID,
		&user.ExternalID,
		&user.ApprovalState,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepo) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (owner_id, video_url, action, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		task.OwnerID,
		task.VideoURL,
		task.Action,
		models.StatusQueued,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	task.Status = models.StatusQueued
	return nil
}

func (r *PostgresRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

func (r *PostgresRepo) ListTasksByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *PostgresRepo) ListAllTasks(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *PostgresRepo) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	task, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	// Same-status updates are idempotent and must not touch timestamps.
	if task.Status == status {
		return task, tx.Commit(ctx)
	}

	if !task.Status.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	var query string
	switch status {
	case models.StatusClaimed:
		query = `UPDATE tasks SET status = $1, claimed_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	case models.StatusQueued:
		query = `UPDATE tasks SET status = $1, claimed_at = NULL WHERE id = $2 RETURNING ` + taskColumns
	case models.StatusDone, models.StatusFailed:
		query = `UPDATE tasks SET status = $1, completed_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	default:
		query = `UPDATE tasks SET status = $1 WHERE id = $2 RETURNING ` + taskColumns
	}

	task, err = scanTask(tx.QueryRow(ctx, query, status, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return task, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.VideoURL,
		&task.Action,
		&task.Status,
		&task.Error,
		&task.CreatedAt,
		&task.ClaimedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
