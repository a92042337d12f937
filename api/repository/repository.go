package repository

import (
	"context"
	"errors"

	"github.com/mzimer/vidmore/api/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrOwnerNotApproved  = errors.New("owner is not approved")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStaleClaim        = errors.New("task claim lost")
)

type Repository interface {
	RegisterUser(ctx context.Context, externalID string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateUserStatus(ctx context.Context, externalID string, state models.ApprovalState) (*models.User, error)

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)
	ListAllTasks(ctx context.Context) ([]*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error)
}
