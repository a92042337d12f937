package repository

import (
	"context"
	"time"

	"github.com/mzimer/vidmore/api/models"
)

// Repository is the worker's view of the task store: claim, progress and
// lease recovery. Sentinel errors are shared with the API-side store in
// api/repository so both trees agree on the taxonomy.
type Repository interface {
	// ClaimNext atomically reserves the oldest queued task matching action,
	// stamping claimed_at. It returns (nil, nil) when nothing is eligible.
	ClaimNext(ctx context.Context, action models.TaskAction) (*models.Task, error)

	// TransitionTask moves a task from an expected current status to the
	// next one. It fails with ErrStaleClaim when the task is no longer in
	// the expected status, which means the lease sweeper took it back.
	TransitionTask(ctx context.Context, id int64, from, to models.TaskStatus, errMsg string) error

	// RequeueExpired resets tasks claimed longer ago than lease back to
	// queued and reports how many it reset.
	RequeueExpired(ctx context.Context, lease time.Duration) (int64, error)
}
