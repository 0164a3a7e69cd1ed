// Package worker runs side effects of staff events off the request path.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// QueueConfig sizes a Queue.
type QueueConfig struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	JobTimeout  time.Duration
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.Buffer <= 0 {
		c.Buffer = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Second
	}
	return c
}

// Queue is a bounded job queue drained by a fixed set of goroutines.
// Failed jobs are retried with linear backoff up to MaxAttempts.
type Queue struct {
	cfg    QueueConfig
	logger *zap.Logger
	jobs   chan Job

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewQueue(cfg QueueConfig, logger *zap.Logger) *Queue {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{cfg: cfg, logger: logger, jobs: make(chan Job, cfg.Buffer)}
}

// Start launches the workers. They exit after Stop drains the buffer.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				q.run(ctx, job)
			}
		}()
	}
}

// Enqueue hands job to the workers. It reports false, and drops the job,
// when the buffer is full or the queue is stopped.
func (q *Queue) Enqueue(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.logger.Warn("job queue full, dropping job", zap.String("job", job.Name))
		return false
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context, job Job) {
	for attempt := 1; ; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, q.cfg.JobTimeout)
		err := job.Run(jobCtx)
		cancel()
		if err == nil {
			return
		}
		if attempt >= q.cfg.MaxAttempts || ctx.Err() != nil {
			q.logger.Error("job failed", zap.String("job", job.Name), zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		q.logger.Warn("job failed, retrying", zap.String("job", job.Name), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(time.Duration(attempt) * q.cfg.Backoff):
		case <-ctx.Done():
			return
		}
	}
}
