package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartScheduler_RunsImmediatelyAndStops(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	p := f.pipeline(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.StartScheduler(ctx, "@every 1h")
	}()

	require.Eventually(t, func() bool {
		names, err := f.clean.List(context.Background())
		return err == nil && len(names) == 1
	}, time.Second, 5*time.Millisecond, "first run happens on start")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartScheduler_EmptySpecReturns(t *testing.T) {
	f := newFixture(t, nil)
	p := f.pipeline(Options{})

	done := make(chan error, 1)
	go func() {
		done <- p.StartScheduler(context.Background(), "")
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("empty schedule must not start a loop")
	}
}

func TestStartScheduler_InvalidSpec(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	p := f.pipeline(Options{})

	err := p.StartScheduler(context.Background(), "every tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")

	names, err := f.clean.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names, "no run on an invalid schedule")
}

func TestScheduledRun_SkipsWhileActive(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	p := f.pipeline(Options{})
	require.True(t, p.Limiter().TryAcquire())

	p.scheduledRun(context.Background())
	p.Limiter().Release()

	names, err := f.clean.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestScheduledRun_DoesNotWaitForSlot(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	limiter := NewRunLimiter(time.Hour)
	p := New(f.raw, f.reg, Options{Tables: defaultTables}, []Publisher{NewCSVPublisher(f.clean)}, WithLimiter(limiter))
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	done := make(chan struct{})
	go func() {
		p.scheduledRun(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled run waited for the held slot")
	}
}

func TestTryRun(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	limiter := NewRunLimiter(time.Hour)
	p := New(f.raw, f.reg, Options{Tables: defaultTables}, []Publisher{NewCSVPublisher(f.clean)}, WithLimiter(limiter))

	require.True(t, limiter.TryAcquire())
	start := time.Now()
	res, err := p.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, res)
	assert.Less(t, time.Since(start), time.Second)
	limiter.Release()

	res, err = p.TryRun(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Tables, 1)
	assert.False(t, limiter.Active(), "slot is released")
}

func TestScheduledRun_SkipsAfterCancel(t *testing.T) {
	f := newFixture(t, map[string]string{"Aircraft.csv": aircraftCSV})
	p := f.pipeline(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.scheduledRun(ctx)

	names, err := f.clean.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
