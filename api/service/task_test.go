package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mzimer/vidmore/api/cache"
	"github.com/mzimer/vidmore/api/database"
	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/kafka"
	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/api/repository"
)

type mockProducer struct {
	mu     sync.Mutex
	events []*kafka.TaskEvent
	fail   bool
}

func (m *mockProducer) SendTaskEvent(ctx context.Context, topic string, event *kafka.TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("broker unavailable")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func (m *mockProducer) sent() []*kafka.TaskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*kafka.TaskEvent(nil), m.events...)
}

type taskFixture struct {
	svc      *TaskService
	repo     *repository.MemoryRepo
	producer *mockProducer
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	mr := miniredis.RunT(t)

	redisCache, err := database.ConnectCache(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	repo := repository.NewMemoryRepo()
	producer := &mockProducer{}
	svc := NewTaskService(repo, cache.NewStatusCache(redisCache), producer, "task_events", zaptest.NewLogger(t))

	return &taskFixture{svc: svc, repo: repo, producer: producer}
}

func approveUser(t *testing.T, repo *repository.MemoryRepo, externalID string) {
	t.Helper()
	_, err := repo.RegisterUser(context.Background(), externalID)
	require.NoError(t, err)
	_, err = repo.UpdateUserStatus(context.Background(), externalID, models.ApprovalApproved)
	require.NoError(t, err)
}

func createReq(externalID string) *dto.CreateTaskRequest {
	return &dto.CreateTaskRequest{
		ExternalID: externalID,
		VideoURL:   "https://youtu.be/abc",
		Action:     "download",
	}
}

func TestTaskService_CreateForApprovedOwner(t *testing.T) {
	f := newTaskFixture(t)
	approveUser(t, f.repo, "tg-1001")

	resp, err := f.svc.Create(context.Background(), "trace-1", createReq("tg-1001"))
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusQueued), resp.Status)
	assert.Equal(t, "download", resp.Action)
	assert.NotZero(t, resp.ID)

	events := f.producer.sent()
	require.Len(t, events, 1)
	assert.Equal(t, resp.ID, events[0].TaskID)
	assert.Equal(t, "trace-1", events[0].TraceID)
}

func TestTaskService_CreateRejectsUnapprovedOwner(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.repo.RegisterUser(ctx, "tg-pending")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "trace-1", createReq("tg-pending"))
	assert.ErrorIs(t, err, repository.ErrOwnerNotApproved)

	_, err = f.repo.RegisterUser(ctx, "tg-rejected")
	require.NoError(t, err)
	_, err = f.repo.UpdateUserStatus(ctx, "tg-rejected", models.ApprovalRejected)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "trace-1", createReq("tg-rejected"))
	assert.ErrorIs(t, err, repository.ErrOwnerNotApproved)

	assert.Empty(t, f.producer.sent(), "no event for a rejected create")
}

func TestTaskService_CreateUnknownOwner(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), "trace-1", createReq("tg-ghost"))
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestTaskService_CreateSurvivesEventFailure(t *testing.T) {
	f := newTaskFixture(t)
	approveUser(t, f.repo, "tg-1001")
	f.producer.fail = true

	resp, err := f.svc.Create(context.Background(), "trace-1", createReq("tg-1001"))
	require.NoError(t, err, "the durable row is the commit point")
	assert.Equal(t, string(models.StatusQueued), resp.Status)
}

func TestTaskService_ListByOwner(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	approveUser(t, f.repo, "tg-1001")

	first, err := f.svc.Create(ctx, "t1", createReq("tg-1001"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, "t2", createReq("tg-1001"))
	require.NoError(t, err)

	tasks, err := f.svc.ListByOwner(ctx, "tg-1001")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)

	_, err = f.svc.ListByOwner(ctx, "tg-ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestTaskService_UpdateStatus(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	approveUser(t, f.repo, "tg-1001")

	created, err := f.svc.Create(ctx, "t1", createReq("tg-1001"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, created.ID, models.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusFailed), updated.Status)

	_, err = f.svc.UpdateStatus(ctx, created.ID, models.StatusActive)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, 9999, models.StatusFailed)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskService_StatusReadAside(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	approveUser(t, f.repo, "tg-1001")

	created, err := f.svc.Create(ctx, "t1", createReq("tg-1001"))
	require.NoError(t, err)

	// The worker moved the task on; the stale cache entry still wins until
	// it expires. Clients polling see at worst a slightly old status.
	_, err = f.repo.ClaimNext(ctx, models.ActionDownload)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusQueued), status.Status)
}

func TestTaskService_StatusFallsBackToStore(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	approveUser(t, f.repo, "tg-1001")

	task := &models.Task{OwnerID: 1, VideoURL: "https://youtu.be/abc", Action: models.ActionDownload}
	require.NoError(t, f.repo.CreateTask(ctx, task))

	status, err := f.svc.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusQueued), status.Status)

	_, err = f.svc.Status(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}
