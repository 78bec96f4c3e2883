package rtkernel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernelRunsRegisteredTasks(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond))

	done := make(chan struct{})
	task, err := NewTask("once", 5, func(tt *Task) {
		close(done)
		for {
			tt.Sleep(1000)
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, k.AddTask(task))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- k.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	cancel()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("kernel never stopped")
	}
}

// TestPriorityPreemption grounds the "three-task priority preemption"
// scenario: a low-priority task spins via Yield while a high-priority task
// blocks on a semaphore; giving the semaphore must hand control to the
// high-priority task at its very next scheduling point, not merely
// eventually.
func TestPriorityPreemption(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond))
	sem := NewSemaphore(k, 0, 1)

	var mu sync.Mutex
	var events []string

	highReady := make(chan struct{})
	highDone := make(chan struct{})
	high, err := NewTask("high", 1, func(tt *Task) {
		close(highReady)
		require.NoError(t, sem.Take(tt, MaxWait))
		mu.Lock()
		events = append(events, "high")
		mu.Unlock()
		close(highDone)
		for {
			tt.Sleep(1000)
		}
	}, nil)
	require.NoError(t, err)

	low, err := NewTask("low", 200, func(tt *Task) {
		for {
			mu.Lock()
			events = append(events, "low")
			mu.Unlock()
			tt.Yield()
		}
	}, nil)
	require.NoError(t, err)

	require.NoError(t, k.AddTask(high))
	require.NoError(t, k.AddTask(low))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- k.Run(ctx) }()

	select {
	case <-highReady:
	case <-time.After(time.Second):
		t.Fatal("high task never started")
	}

	require.NoError(t, sem.Give())
	mu.Lock()
	afterGive := len(events)
	mu.Unlock()

	select {
	case <-highDone:
	case <-time.After(time.Second):
		t.Fatal("high task never ran after semaphore Give")
	}

	cancel()
	<-runDone

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	firstHigh := -1
	for i, e := range events {
		if e == "high" {
			firstHigh = i
			break
		}
	}
	require.NotEqual(t, -1, firstHigh)
	// low may finish at most the loop iteration it was in when Give
	// returned; its next Yield must hand the run token to high.
	assert.LessOrEqual(t, firstHigh, afterGive+1)
}

// TestMetricsCountContextSwitches grounds the kernel's optional metrics
// collection: a task that repeatedly sleeps forces a real run-token
// handoff to the idle task and back on every wakeup, which must be
// reflected in Metrics().ContextSwitches.
func TestMetricsCountContextSwitches(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond), WithMetrics(true))

	var mu sync.Mutex
	runs := 0
	task, err := NewTask("sleeper", 5, func(tt *Task) {
		for {
			mu.Lock()
			runs++
			mu.Unlock()
			tt.Sleep(2)
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, k.AddTask(task))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, k.Run(ctx))

	mu.Lock()
	assert.Greater(t, runs, 1)
	mu.Unlock()

	assert.Greater(t, k.Metrics().ContextSwitches, uint64(0))
}

// TestAddTaskAfterStartReturnsStopped grounds the state-check wiring: once
// the kernel has left StateNotStarted, AddTask must refuse new tasks rather
// than silently racing the scheduler's own read of k.tasks.
func TestAddTaskAfterStartReturnsStopped(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond))

	task, err := NewTask("runner", 5, func(tt *Task) {
		for {
			tt.Sleep(1000)
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, k.AddTask(task))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- k.Run(ctx) }()

	// Give Run a moment to flip state out of StateNotStarted.
	time.Sleep(5 * time.Millisecond)

	late, err := NewTask("late", 5, func(*Task) {}, nil)
	require.NoError(t, err)
	err = k.AddTask(late)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStopped)

	cancel()
	<-runDone
}

// TestRunAfterCompletionReturnsStopped grounds the distinction between
// ErrStopped (already ran to completion) and ErrInvalid (still running).
func TestRunAfterCompletionReturnsStopped(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond))

	task, err := NewTask("once", 5, func(tt *Task) {
		for {
			tt.Sleep(1000)
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, k.AddTask(task))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, k.Run(ctx))

	err = k.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStopped)
}

// TestRunWhileRunningReturnsInvalid grounds the concurrent-Run guard: a
// second Run call while the first is still in flight must not be confused
// with the already-stopped case.
func TestRunWhileRunningReturnsInvalid(t *testing.T) {
	k := New(WithTickInterval(time.Millisecond))

	task, err := NewTask("runner", 5, func(tt *Task) {
		for {
			tt.Sleep(1000)
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, k.AddTask(task))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- k.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	err = k.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	cancel()
	<-runDone
}

// TestShutdownBeforeRunReturnsNotRunning grounds the fix for a latent hang:
// calling Shutdown before Run must return ErrNotRunning instead of blocking
// forever on a doneCh that Run will never close.
func TestShutdownBeforeRunReturnsNotRunning(t *testing.T) {
	k := New()
	err := k.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRunning)
}
