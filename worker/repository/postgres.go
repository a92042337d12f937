package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mzimer/vidmore/api/models"
	apirepo "github.com/mzimer/vidmore/api/repository"
)

const taskColumns = `id, owner_id, video_url, action, status, error_message, created_at, claimed_at, completed_at`

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// ClaimNext is the atomic claim: selection and marking happen in a single
// statement, so concurrent claimants can never observe them as separable
// steps. SKIP LOCKED keeps claimants from queueing up behind each other.
func (r *PostgresRepo) ClaimNext(ctx context.Context, action models.TaskAction) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $1, claimed_at = NOW()
		WHERE id = (
			SELECT id FROM tasks
			WHERE status = $2 AND action = $3
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	var task models.Task
	err := r.db.QueryRow(ctx, query, models.StatusClaimed, models.StatusQueued, action).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &task, nil
}

func (r *PostgresRepo) TransitionTask(ctx context.Context, id int64, from, to models.TaskStatus, errMsg string) error {
	var query string
	args := []interface{}{id, from, to}

	switch to {
	case models.StatusDone:
		query = `UPDATE tasks SET status = $3, completed_at = NOW() WHERE id = $1 AND status = $2`
	case models.StatusFailed:
		query = `UPDATE tasks SET status = $3, error_message = $4, completed_at = NOW() WHERE id = $1 AND status = $2`
		args = append(args, errMsg)
	case models.StatusQueued:
		query = `UPDATE tasks SET status = $3, claimed_at = NULL WHERE id = $1 AND status = $2`
	default:
		query = `UPDATE tasks SET status = $3 WHERE id = $1 AND status = $2`
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apirepo.ErrStaleClaim
	}

	return nil
}

func (r *PostgresRepo) RequeueExpired(ctx context.Context, lease time.Duration) (int64, error) {
	query := `
		UPDATE tasks
		SET status = $1, claimed_at = NULL
		WHERE status IN ($2, $3)
		  AND claimed_at < NOW() - make_interval(secs => $4)
	`

	result, err := r.db.Exec(ctx, query,
		models.StatusQueued,
		models.StatusClaimed,
		models.StatusActive,
		lease.Seconds(),
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
