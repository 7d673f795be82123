// Package poller runs the panel's periodic fetch tasks. One poller
// owns one data source; overlapping ticks are skipped outright
// rather than queued, and repeated failures stretch the wait up to a
// cap so a dead backend is not hammered.
package poller

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"signalpanel/internal/ports"
)

// Task describes one polling job.
type Task struct {
	Name     string
	Interval time.Duration
	// Jitter spreads ticks by up to ± this duration so several
	// panel instances do not hit the backend in lockstep.
	Jitter time.Duration
	// MaxBackoff caps the failure backoff. Zero means 6× Interval.
	MaxBackoff time.Duration
	Run        func(ctx context.Context) error
}

// Status is a snapshot of a poller's progress.
type Status struct {
	Name        string
	Runs        int64
	Failures    int64
	Skips       int64
	LastRun     time.Time
	LastSuccess time.Time
	LastErr     error
}

// Poller drives one Task on its interval.
type Poller struct {
	task    Task
	logger  ports.Logger
	metrics *Metrics

	inFlight atomic.Bool

	mu          sync.Mutex
	runs        int64
	failures    int64 // consecutive
	totalFails  int64
	skips       int64
	lastRun     time.Time
	lastSuccess time.Time
	lastErr     error
}

// New validates and builds a poller.
func New(task Task, logger ports.Logger, metrics *Metrics) *Poller {
	if task.MaxBackoff <= 0 {
		task.MaxBackoff = 6 * task.Interval
	}
	return &Poller{task: task, logger: logger, metrics: metrics}
}

// Start launches the polling loop and returns immediately. The loop
// stops when ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	go p.loop(ctx)
}

func (p *Poller) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.nextDelay()):
		}
		p.TryRun(ctx)
	}
}

// nextDelay is the base interval stretched by consecutive failures
// and shifted by jitter.
func (p *Poller) nextDelay() time.Duration {
	p.mu.Lock()
	fails := p.failures
	p.mu.Unlock()

	delay := p.task.Interval * time.Duration(fails+1)
	if delay > p.task.MaxBackoff {
		delay = p.task.MaxBackoff
	}
	if j := p.task.Jitter; j > 0 {
		delay += time.Duration(rand.Int63n(int64(2*j))) - j
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// TryRun executes the task unless a previous run is still in flight,
// in which case the tick is skipped entirely. Returns whether the
// task ran.
func (p *Poller) TryRun(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.mu.Lock()
		p.skips++
		p.mu.Unlock()
		p.metrics.tick(p.task.Name, outcomeSkipped)
		return false
	}
	defer p.inFlight.Store(false)

	now := time.Now().UTC()
	err := p.task.Run(ctx)

	p.mu.Lock()
	p.runs++
	p.lastRun = now
	p.lastErr = err
	if err != nil {
		p.failures++
		p.totalFails++
	} else {
		p.failures = 0
		p.lastSuccess = now
	}
	p.mu.Unlock()

	if err != nil {
		p.metrics.tick(p.task.Name, outcomeFailure)
		if p.logger != nil {
			p.logger.Warn(ctx, "poll tick failed", map[string]interface{}{
				"task": p.task.Name, "error": err.Error(),
			})
		}
		return true
	}
	p.metrics.tick(p.task.Name, outcomeSuccess)
	p.metrics.success(p.task.Name, now)
	return true
}

// Status returns a snapshot for the status endpoint and tests.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Name:        p.task.Name,
		Runs:        p.runs,
		Failures:    p.totalFails,
		Skips:       p.skips,
		LastRun:     p.lastRun,
		LastSuccess: p.lastSuccess,
		LastErr:     p.lastErr,
	}
}
