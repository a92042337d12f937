package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/models"
	apirepo "github.com/mzimer/vidmore/api/repository"
	"github.com/mzimer/vidmore/worker/fetcher"
	"github.com/mzimer/vidmore/worker/kafka"
	"github.com/mzimer/vidmore/worker/metrics"
	"github.com/mzimer/vidmore/worker/pool"
	"github.com/mzimer/vidmore/worker/repository"
)

// StatusWriter mirrors lifecycle edges into the status cache.
type StatusWriter interface {
	Set(ctx context.Context, taskID int64, status models.TaskStatus) error
}

// Config holds the processor's tunables.
type Config struct {
	Action       models.TaskAction
	Topic        string
	PollInterval time.Duration
	PollJitter   time.Duration
	Lease        time.Duration
	FetchTimeout time.Duration
}

// Processor is the worker loop: sweep expired leases, claim as many tasks
// as there are free fetch slots, run fetches, and record outcomes. Several
// processors may share one queue; the store's claim protocol keeps them
// from colliding.
type Processor struct {
	cfg      Config
	repo     repository.Repository
	fetcher  fetcher.Fetcher
	cache    StatusWriter
	producer kafka.Producer
	pool     *pool.Pool
	logger   *zap.Logger
}

func NewProcessor(
	cfg Config,
	repo repository.Repository,
	f fetcher.Fetcher,
	cache StatusWriter,
	producer kafka.Producer,
	p *pool.Pool,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		cfg:      cfg,
		repo:     repo,
		fetcher:  f,
		cache:    cache,
		producer: producer,
		pool:     p,
		logger:   logger,
	}
}

// Run polls until ctx is canceled, then waits for in-flight fetches.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("Worker started",
		zap.String("action", string(p.cfg.Action)),
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Duration("lease", p.cfg.Lease),
	)

	for {
		p.Tick(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("Worker stopping, waiting for in-flight tasks")
			p.pool.Wait()
			return
		case <-time.After(p.sleepFor()):
		}
	}
}

// Tick runs one poll cycle: a lease sweep, then claims until either the
// queue is drained or all fetch slots are busy.
func (p *Processor) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	requeued, err := p.repo.RequeueExpired(ctx, p.cfg.Lease)
	if err != nil {
		p.logger.Error("Lease sweep failed", zap.Error(err))
	} else if requeued > 0 {
		metrics.TasksRequeued.Add(float64(requeued))
		p.logger.Warn("Requeued expired tasks", zap.Int64("count", requeued))
	}

	for p.pool.TryAcquire() {
		task, err := p.repo.ClaimNext(ctx, p.cfg.Action)
		if err != nil {
			p.pool.Release()
			p.logger.Error("Claim failed", zap.Error(err))
			return
		}
		if task == nil {
			p.pool.Release()
			return
		}

		metrics.TasksClaimed.WithLabelValues(string(task.Action)).Inc()
		p.logger.Info("Claimed task",
			zap.Int64("task_id", task.ID),
			zap.String("url", task.VideoURL),
		)

		t := task
		p.pool.Go(func() {
			p.process(ctx, t)
		})
	}
}

func (p *Processor) process(ctx context.Context, task *models.Task) {
	if !p.transition(ctx, task, models.StatusClaimed, models.StatusActive, "") {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	path, err := p.fetcher.Fetch(fetchCtx, task.VideoURL)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// A canceled parent context means shutdown, not a bad video. Hand
		// the task back so another worker picks it up immediately instead
		// of waiting out the lease.
		if ctx.Err() != nil {
			p.logger.Info("Shutdown during fetch, requeueing",
				zap.Int64("task_id", task.ID),
			)
			p.transition(context.Background(), task, models.StatusActive, models.StatusQueued, "")
			return
		}

		p.logger.Error("Fetch failed",
			zap.Int64("task_id", task.ID),
			zap.String("url", task.VideoURL),
			zap.Error(err),
		)
		if p.transition(ctx, task, models.StatusActive, models.StatusFailed, err.Error()) {
			metrics.TaskOutcomes.WithLabelValues(string(models.StatusFailed)).Inc()
			p.publish(ctx, task, models.StatusFailed, err.Error())
		}
		return
	}

	if p.transition(ctx, task, models.StatusActive, models.StatusDone, "") {
		metrics.TaskOutcomes.WithLabelValues(string(models.StatusDone)).Inc()
		p.publish(ctx, task, models.StatusDone, "")
		p.logger.Info("Task completed",
			zap.Int64("task_id", task.ID),
			zap.String("output", path),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// transition applies a conditional status move and mirrors it into the
// cache. A stale claim means the lease sweeper already took the task back,
// so the worker drops it without touching anything else.
func (p *Processor) transition(ctx context.Context, task *models.Task, from, to models.TaskStatus, errMsg string) bool {
	err := p.repo.TransitionTask(ctx, task.ID, from, to, errMsg)
	if err != nil {
		if errors.Is(err, apirepo.ErrStaleClaim) {
			p.logger.Warn("Lost claim, abandoning task",
				zap.Int64("task_id", task.ID),
				zap.String("expected", string(from)),
			)
			return false
		}
		p.logger.Error("Transition failed",
			zap.Int64("task_id", task.ID),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return false
	}

	if err := p.cache.Set(ctx, task.ID, to); err != nil {
		p.logger.Warn("Status cache write failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}

	return true
}

func (p *Processor) publish(ctx context.Context, task *models.Task, status models.TaskStatus, errMsg string) {
	event := &kafka.TaskEvent{
		TaskID:  task.ID,
		OwnerID: task.OwnerID,
		Status:  string(status),
		Error:   errMsg,
	}

	if err := p.producer.SendTaskEvent(ctx, p.cfg.Topic, event); err != nil {
		p.logger.Warn("Failed to publish task event",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}
}

func (p *Processor) sleepFor() time.Duration {
	d := p.cfg.PollInterval
	if p.cfg.PollJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.cfg.PollJitter)))
	}
	return d
}
