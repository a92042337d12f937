package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mzimer/vidmore/api/models"
)

// MemoryRepo is a mutex-guarded in-memory store implementing the API
// repository contract plus the worker-side claim operations. It backs tests
// and local development; semantics mirror the Postgres implementation.
type MemoryRepo struct {
	mu         sync.Mutex
	users      map[string]*models.User
	tasks      []*models.Task
	nextUserID int64
	nextTaskID int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]*models.User),
		nextUserID: 1,
		nextTaskID: 1,
	}
}

func (r *MemoryRepo) RegisterUser(ctx context.Context, externalID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[externalID]; ok {
		return copyUser(user), nil
	}

	user := &models.User{
		ID:            r.nextUserID,
		ExternalID:    externalID,
		ApprovalState: models.ApprovalPending,
		CreatedAt:     time.Now(),
	}
	r.nextUserID++
	r.users[externalID] = user

	return copyUser(user), nil
}

func (r *MemoryRepo) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[externalID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *MemoryRepo) UpdateUserStatus(ctx context.Context, externalID string, state models.ApprovalState) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[externalID]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.ApprovalState = state
	return copyUser(user), nil
}

func (r *MemoryRepo) CreateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = r.nextTaskID
	r.nextTaskID++
	task.Status = models.StatusQueued
	task.CreatedAt = time.Now()

	stored := copyTask(task)
	r.tasks = append(r.tasks, stored)

	return nil
}

func (r *MemoryRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (r *MemoryRepo) ListTasksByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*models.Task, 0)
	for _, task := range r.tasks {
		if task.OwnerID == ownerID {
			tasks = append(tasks, copyTask(task))
		}
	}
	return tasks, nil
}

func (r *MemoryRepo) ListAllTasks(ctx context.Context) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, copyTask(task))
	}
	return tasks, nil
}

func (r *MemoryRepo) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrTaskNotFound
	}

	if task.Status == status {
		return copyTask(task), nil
	}

	if !task.Status.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	applyTransition(task, status, "")
	return copyTask(task), nil
}

// ClaimNext atomically reserves the oldest queued task matching action.
// It returns (nil, nil) when no task is eligible.
func (r *MemoryRepo) ClaimNext(ctx context.Context, action models.TaskAction) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, task := range r.tasks {
		if task.Status == models.StatusQueued && task.Action == action {
			now := time.Now()
			task.Status = models.StatusClaimed
			task.ClaimedAt = &now
			return copyTask(task), nil
		}
	}
	return nil, nil
}

// TransitionTask applies a worker-side transition conditional on the task
// still being in the expected state; ErrStaleClaim means the lease sweeper
// took the task back and the caller must abandon it.
func (r *MemoryRepo) TransitionTask(ctx context.Context, id int64, from, to models.TaskStatus, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != from {
		return ErrStaleClaim
	}
	if !from.CanTransitionTo(to) {
		return ErrInvalidTransition
	}

	applyTransition(task, to, errMsg)
	return nil
}

// RequeueExpired resets tasks claimed longer ago than lease back to queued.
func (r *MemoryRepo) RequeueExpired(ctx context.Context, lease time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-lease)
	var requeued int64
	for _, task := range r.tasks {
		if task.Status != models.StatusClaimed && task.Status != models.StatusActive {
			continue
		}
		if task.ClaimedAt != nil && task.ClaimedAt.Before(cutoff) {
			task.Status = models.StatusQueued
			task.ClaimedAt = nil
			requeued++
		}
	}
	return requeued, nil
}

func (r *MemoryRepo) find(id int64) *models.Task {
	for _, task := range r.tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}

func applyTransition(task *models.Task, to models.TaskStatus, errMsg string) {
	now := time.Now()
	switch to {
	case models.StatusClaimed:
		task.ClaimedAt = &now
	case models.StatusQueued:
		task.ClaimedAt = nil
	case models.StatusDone, models.StatusFailed:
		task.CompletedAt = &now
	}
	if errMsg != "" {
		task.Error = errMsg
	}
	task.Status = to
}

func copyTask(task *models.Task) *models.Task {
	c := *task
	if task.ClaimedAt != nil {
		t := *task.ClaimedAt
		c.ClaimedAt = &t
	}
	if task.CompletedAt != nil {
		t := *task.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func copyUser(user *models.User) *models.User {
	c := *user
	return &c
}
