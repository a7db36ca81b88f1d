package publisher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mosaic/internal/apperr"
)

type countingRunner struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	errAt   int32
	err     error
}

func (c *countingRunner) Publish(context.Context) (Result, error) {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)
	n := c.calls.Add(1)
	time.Sleep(2 * time.Millisecond)
	if c.err != nil && n >= c.errAt {
		return Result{}, c.err
	}
	return Result{}, nil
}

func TestScheduler_RunsOnStartAndTicks(t *testing.T) {
	r := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewScheduler(r, 5*time.Millisecond, true, discard()).Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.False(t, r.overlap.Load())
}

func TestScheduler_WaitsOneIntervalWithoutOnStart(t *testing.T) {
	r := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewScheduler(r, time.Hour, false, discard()).Run(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, r.calls.Load())
}

func TestScheduler_StopsOnFatal(t *testing.T) {
	fatal := &PublishError{Step: StepPromoteStaging, Err: errInjected}
	r := &countingRunner{err: fatal, errAt: 2}

	err := NewScheduler(r, time.Millisecond, true, discard()).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrPublishFatal)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestScheduler_KeepsGoingAfterDownloadFailure(t *testing.T) {
	r := &countingRunner{err: errors.Join(apperr.ErrDownloadFailed, errInjected), errAt: 1}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewScheduler(r, time.Millisecond, true, discard()).Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	err := NewScheduler(&countingRunner{}, 0, true, discard()).Run(context.Background())
	assert.Error(t, err)
}
