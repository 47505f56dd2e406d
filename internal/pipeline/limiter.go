package pipeline

// limiter.go serializes pipeline runs.
//
// Every trigger (HTTP, scheduler, CLI) acquires the single run slot before
// starting. A trigger that cannot get the slot within maxWait fails with
// ErrRunInProgress. WaitForDrain lets shutdown wait for the active run.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when another run holds the slot and the wait
// timeout expires.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// DefaultRunWait is how long to wait for the slot before rejecting.
const DefaultRunWait = 30 * time.Second

// RunLimiter admits one run at a time.
type RunLimiter struct {
	slot    chan struct{}
	maxWait time.Duration

	mu      sync.RWMutex
	active  bool
	started time.Time
}

// NewRunLimiter creates a limiter. Callers that cannot acquire the slot
// within maxWait receive ErrRunInProgress.
func NewRunLimiter(maxWait time.Duration) *RunLimiter {
	if maxWait <= 0 {
		maxWait = DefaultRunWait
	}
	return &RunLimiter{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire waits for the run slot.
// The caller MUST call Release when the run completes (use defer).
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slot <- struct{}{}:
		l.markActive()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInProgress
	}
}

// TryAcquire takes the slot without blocking.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.slot <- struct{}{}:
		l.markActive()
		return true
	default:
		return false
	}
}

// Release frees the slot taken by Acquire or TryAcquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active = false
	l.started = time.Time{}
	l.mu.Unlock()

	<-l.slot
}

func (l *RunLimiter) markActive() {
	l.mu.Lock()
	l.active = true
	l.started = time.Now()
	l.mu.Unlock()
}

// Active reports whether a run holds the slot.
func (l *RunLimiter) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no run is active or ctx is done.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !l.Active() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunLimiterStatus is a snapshot of the limiter.
type RunLimiterStatus struct {
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Status returns the current limiter state for monitoring.
func (l *RunLimiter) Status() RunLimiterStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return RunLimiterStatus{Active: l.active, StartedAt: l.started}
}
