// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/model"
)

func TestQueueRunsSubmittedJobs(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]bool{}
	done := make(chan struct{}, 2)

	q := NewQueue(2, 4, func(_ context.Context, job *model.Job) {
		mu.Lock()
		ran[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
	}, nil)
	q.Start(context.Background())

	require.NoError(t, q.Submit(&model.Job{ID: "a"}))
	require.NoError(t, q.Submit(&model.Job{ID: "b"}))
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("jobs did not run")
		}
	}
	q.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ran["a"] && ran["b"])
}

func TestQueueDismissCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan error, 1)

	q := NewQueue(1, 1, func(ctx context.Context, _ *model.Job) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
	}, nil)
	q.Start(context.Background())
	defer q.Shutdown()

	require.NoError(t, q.Submit(&model.Job{ID: "long"}))
	<-started

	assert.True(t, q.Dismiss("long"))
	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dismiss did not cancel the job")
	}
}

func TestQueueDismissUnknownJob(t *testing.T) {
	q := NewQueue(1, 1, func(context.Context, *model.Job) {}, nil)
	q.Start(context.Background())
	defer q.Shutdown()
	assert.False(t, q.Dismiss("nope"))
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewQueue(1, 1, func(context.Context, *model.Job) {}, nil)
	q.Start(context.Background())
	q.Shutdown()
	assert.ErrorIs(t, q.Submit(&model.Job{ID: "late"}), ErrQueueClosed)
}

func TestQueueFullBacklog(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue(1, 1, func(context.Context, *model.Job) {
		<-block
	}, nil)
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Shutdown()
	}()

	// One job occupies the worker, one fills the backlog; the third is
	// rejected.
	require.NoError(t, q.Submit(&model.Job{ID: "a"}))
	var err error
	for i := 0; i < 50; i++ {
		if err = q.Submit(&model.Job{ID: "b"}); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		if err := q.Submit(&model.Job{ID: "c"}); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			return
		}
		select {
		case <-deadline:
			t.Fatal("queue never filled")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
