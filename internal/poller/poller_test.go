package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_TryRunExecutes(t *testing.T) {
	var runs int
	p := New(Task{
		Name:     "klines",
		Interval: time.Second,
		Run:      func(context.Context) error { runs++; return nil },
	}, nil, nil)

	require.True(t, p.TryRun(context.Background()))
	require.True(t, p.TryRun(context.Background()))

	st := p.Status()
	assert.Equal(t, 2, runs)
	assert.Equal(t, int64(2), st.Runs)
	assert.Zero(t, st.Failures)
	assert.False(t, st.LastSuccess.IsZero())
}

func TestPoller_OverlappingTickSkipped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	p := New(Task{
		Name:     "slow",
		Interval: time.Second,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	}, nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.TryRun(context.Background())
	}()
	<-started

	// second tick while the first is in flight: skipped, not queued
	assert.False(t, p.TryRun(context.Background()))
	close(release)
	wg.Wait()

	st := p.Status()
	assert.Equal(t, int64(1), st.Runs)
	assert.Equal(t, int64(1), st.Skips)
}

func TestPoller_FailureBackoffGrowsAndResets(t *testing.T) {
	fail := true
	p := New(Task{
		Name:     "flaky",
		Interval: 100 * time.Millisecond,
		Run: func(context.Context) error {
			if fail {
				return errors.New("backend down")
			}
			return nil
		},
	}, nil, nil)

	p.TryRun(context.Background())
	p.TryRun(context.Background())
	assert.Equal(t, 300*time.Millisecond, p.nextDelay(), "two failures stretch the wait")

	p.TryRun(context.Background())
	p.TryRun(context.Background())
	p.TryRun(context.Background())
	p.TryRun(context.Background())
	assert.Equal(t, 600*time.Millisecond, p.nextDelay(), "backoff caps at MaxBackoff")

	fail = false
	p.TryRun(context.Background())
	assert.Equal(t, 100*time.Millisecond, p.nextDelay(), "success resets backoff")

	st := p.Status()
	assert.Equal(t, int64(6), st.Failures)
	assert.NoError(t, st.LastErr)
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	p := New(Task{
		Name:     "fast",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			mu.Lock()
			runs++
			mu.Unlock()
			return nil
		},
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()

	mu.Lock()
	after := runs
	mu.Unlock()
	require.Greater(t, after, 0)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.LessOrEqual(t, runs, after+1, "no new runs after cancel")
	mu.Unlock()
}
