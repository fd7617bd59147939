// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/geoflow/geoflow/internal/model"
)

var (
	ErrQueueClosed = errors.New("execution queue is closed")
	ErrQueueFull   = errors.New("execution queue is full")
)

// Task executes one job to completion. It must record the terminal state
// itself; the queue only bounds concurrency and carries cancellation.
type Task func(ctx context.Context, job *model.Job)

// Queue is a bounded worker pool over pending jobs. Dismissing a job cancels
// its context if it is already running.
type Queue struct {
	tasks   chan *model.Job
	workers int
	run     Task
	logger  *slog.Logger
	group   *errgroup.Group
	cancels sync.Map // job id -> context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewQueue builds a queue with the given worker count and backlog capacity.
func NewQueue(workers, backlog int, run Task, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if backlog <= 0 {
		backlog = workers * 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		tasks:   make(chan *model.Job, backlog),
		workers: workers,
		run:     run,
		logger:  logger,
	}
}

// Start launches the workers. They drain the backlog until Shutdown closes
// it or the context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case job, ok := <-q.tasks:
					if !ok {
						return nil
					}
					q.execute(ctx, job)
				}
			}
		})
	}
}

func (q *Queue) execute(ctx context.Context, job *model.Job) {
	jobCtx, cancel := context.WithCancel(ctx)
	q.cancels.Store(job.ID, cancel)
	defer func() {
		cancel()
		q.cancels.Delete(job.ID)
	}()
	q.run(jobCtx, job)
}

// Submit enqueues a job for execution.
func (q *Queue) Submit(job *model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dismiss cancels a running job. It reports whether the job was running; a
// queued-but-not-started job is left to the caller's terminal-state check.
func (q *Queue) Dismiss(jobID string) bool {
	if cancel, ok := q.cancels.Load(jobID); ok {
		cancel.(context.CancelFunc)()
		return true
	}
	return false
}

// Shutdown stops accepting jobs and waits for running ones to finish.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()
	if q.group != nil {
		_ = q.group.Wait()
	}
}
