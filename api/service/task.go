package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/cache"
	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/kafka"
	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/api/repository"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrInvalidAction is returned when a create request carries an action
// outside the bounded set.
var ErrInvalidAction = errors.New("invalid task action")

type TaskService struct {
	repo     repository.Repository
	cache    *cache.StatusCache
	producer kafka.Producer
	topic    string
	logger   *zap.Logger
}

func NewTaskService(repo repository.Repository, cache *cache.StatusCache, producer kafka.Producer, topic string, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Create inserts a queued task for an approved owner. The durable row is the
// commit point; cache and event publication are best-effort side effects.
func (s *TaskService) Create(ctx context.Context, traceID string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	user, err := s.repo.GetUserByExternalID(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}
	if user.ApprovalState != models.ApprovalApproved {
		return nil, repository.ErrOwnerNotApproved
	}

	action, ok := models.ParseTaskAction(req.Action)
	if !ok {
		return nil, ErrInvalidAction
	}

	task := &models.Task{
		OwnerID:  user.ID,
		VideoURL: req.VideoURL,
		Action:   action,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, task.ID, task.Status); err != nil {
		s.logger.Warn("Status cache write failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}

	event := &kafka.TaskEvent{
		TaskID:  task.ID,
		OwnerID: task.OwnerID,
		Status:  string(task.Status),
		TraceID: traceID,
	}
	if err := s.producer.SendTaskEvent(ctx, s.topic, event); err != nil {
		s.logger.Warn("Task event publish failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}

	return toTaskResponse(task), nil
}

func (s *TaskService) ListByOwner(ctx context.Context, externalID string) ([]*dto.TaskResponse, error) {
	user, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasksByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toTaskResponses(tasks), nil
}

func (s *TaskService) ListAll(ctx context.Context) ([]*dto.TaskResponse, error) {
	tasks, err := s.repo.ListAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return toTaskResponses(tasks), nil
}

// UpdateStatus is the administrative override path; transitions are checked
// against the status machine by the store.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) (*dto.TaskResponse, error) {
	task, err := s.repo.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, task.ID, task.Status); err != nil {
		s.logger.Warn("Status cache write failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}

	return toTaskResponse(task), nil
}

// Status serves client polling; it reads the cache first and falls back to
// the store, repopulating the cache on a miss.
func (s *TaskService) Status(ctx context.Context, taskID int64) (*dto.TaskStatusResponse, error) {
	status, err := s.cache.Get(ctx, taskID)
	if err == nil {
		return &dto.TaskStatusResponse{ID: taskID, Status: string(status)}, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.logger.Warn("Status cache read failed",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
	}

	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, task.ID, task.Status); err != nil {
		s.logger.Warn("Status cache write failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}

	return &dto.TaskStatusResponse{ID: task.ID, Status: string(task.Status)}, nil
}

func toTaskResponse(task *models.Task) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:        task.ID,
		OwnerID:   task.OwnerID,
		VideoURL:  task.VideoURL,
		Action:    string(task.Action),
		Status:    string(task.Status),
		Error:     task.Error,
		CreatedAt: task.CreatedAt.Format(timeLayout),
	}
	if task.ClaimedAt != nil {
		resp.ClaimedAt = formatTime(task.ClaimedAt)
	}
	if task.CompletedAt != nil {
		resp.CompletedAt = formatTime(task.CompletedAt)
	}
	return resp
}

func toTaskResponses(tasks []*models.Task) []*dto.TaskResponse {
	out := make([]*dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	return out
}

func formatTime(t *time.Time) *string {
	formatted := t.Format(timeLayout)
	return &formatted
}
