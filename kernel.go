package rtkernel

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// idleTaskPriority matches IDLE_TASK_PRIORITY == TASK_LOWEST_PRIORITY: the
// idle task never outranks an application task.
const idleTaskPriority = LowestPriority

// Kernel is a single fixed-priority preemptive scheduler. It owns exactly
// one run token, handed between task goroutines at scheduling points. A
// Kernel must not be reused after [Kernel.Run] returns.
type Kernel struct {
	opts *kernelOptions

	state    fastState
	startErr error

	mu         sync.Mutex
	tasks      []*Task
	readyQueue taskQueue
	timeouts   timeoutList
	current    *Task
	idle       *Task
	timerTask  *Task
	timerList  *Timer
	timerHandlers handlerQueue
	tickCount  uint64

	metrics metricsState

	cancel  context.CancelFunc
	doneCh  chan struct{}
	runOnce sync.Once
}

// New constructs a Kernel. No tasks are schedulable until registered with
// [Kernel.AddTask] and the kernel is started with [Kernel.Run].
func New(opts ...Option) *Kernel {
	cfg := resolveOptions(opts)
	k := &Kernel{
		opts:   cfg,
		doneCh: make(chan struct{}),
	}
	k.metrics.enabled = cfg.metricsEnabled
	idle, err := NewTask("idle", idleTaskPriority, idleTaskEntry, nil)
	if err != nil {
		// unreachable: idleTaskPriority is always a valid priority.
		panic(err)
	}
	idle.kernel = k
	k.idle = idle

	timer, err := NewTask("timer", timerTaskPriority, timerTaskEntry, nil)
	if err != nil {
		// unreachable: timerTaskPriority is always a valid priority.
		panic(err)
	}
	timer.kernel = k
	k.timerTask = timer

	return k
}

func idleTaskEntry(t *Task) {
	for {
		t.Yield()
	}
}

// AddTask registers a task with the kernel. It must be called before
// [Kernel.Run]; registering after the kernel has started returns
// [ErrStopped].
func (k *Kernel) AddTask(t *Task) error {
	if t == nil {
		return WrapError("rtkernel.Kernel.AddTask: task", ErrInvalid)
	}
	if k.state.Load() != StateNotStarted {
		return WrapError("rtkernel.Kernel.AddTask: no longer accepting new tasks", ErrStopped)
	}
	t.kernel = k
	k.tasks = append(k.tasks, t)
	return nil
}

// Tasks returns the tasks registered with the kernel, in registration
// order, not including the internal idle task.
func (k *Kernel) Tasks() []*Task {
	out := make([]*Task, len(k.tasks))
	copy(out, k.tasks)
	return out
}

// Metrics returns a snapshot of the kernel's runtime statistics. Returns
// the zero value if metrics collection was not enabled via [WithMetrics].
func (k *Kernel) Metrics() Metrics {
	return k.metrics.snapshot()
}

// Run starts every registered task plus the internal idle task, and blocks
// until ctx is cancelled or [Kernel.Shutdown] is called. It is the Go
// analogue of schedulerStart: it picks the first task to run and, from
// that point on, every context switch is driven by tasks reaching
// scheduling points and by tick-driven timeout/preemption checks.
func (k *Kernel) Run(ctx context.Context) error {
	if !k.state.TryTransition(StateNotStarted, StateRunning) {
		if k.state.Load() == StateStopped {
			return WrapError("rtkernel.Kernel.Run: already ran to completion", ErrStopped)
		}
		return WrapError("rtkernel.Kernel.Run: already running", ErrInvalid)
	}

	runCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel

	k.mu.Lock()
	all := append([]*Task{}, k.tasks...)
	all = append(all, k.timerTask, k.idle)
	for _, t := range all {
		t.status = StatusReady
		k.markReadySince(t)
		k.readyQueue.pushLocked(t)
	}
	k.scheduleNextTaskLocked()
	first := k.current
	k.mu.Unlock()

	for _, t := range all {
		go k.runTaskGoroutine(t)
	}

	k.logAt(logiface.LevelInformational).Str("task", first.name).Log("kernel started")
	first.resumeCh <- struct{}{}

	go k.tickLoop(runCtx)

	<-runCtx.Done()
	k.state.Store(StateStopping)
	k.drainOnShutdown()
	k.state.Store(StateStopped)
	close(k.doneCh)

	if ctx.Err() != nil && runCtx.Err() == ctx.Err() {
		return nil
	}
	return nil
}

// Shutdown requests the kernel stop. It returns once the kernel's Run call
// has returned, or ctx is cancelled first. Returns [ErrNotRunning] if the
// kernel was never started, since otherwise Shutdown would block forever
// waiting on a doneCh that [Kernel.Run] will never close.
func (k *Kernel) Shutdown(ctx context.Context) error {
	if k.state.Load() == StateNotStarted {
		return WrapError("rtkernel.Kernel.Shutdown", ErrNotRunning)
	}
	k.runOnce.Do(func() {
		if k.cancel != nil {
			k.cancel()
		}
	})
	select {
	case <-k.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drainOnShutdown marks every task terminated. It does not wake goroutines
// parked on their resumeCh, so those stay parked; the flag is checked only
// by a task goroutine before its entry function starts and by the timer
// task after each block.
func (k *Kernel) drainOnShutdown() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, t := range k.tasks {
		t.terminated = true
	}
	k.idle.terminated = true
	k.timerTask.terminated = true
}

func (k *Kernel) runTaskGoroutine(t *Task) {
	<-t.resumeCh
	if t.terminated {
		return
	}
	started := time.Time{}
	if k.metrics.enabled {
		started = timeNow()
	}
	t.entry(t)
	if k.metrics.enabled && !started.IsZero() {
		k.metrics.recordRun(t.name, timeNow().Sub(started))
	}
	k.mu.Lock()
	t.status = StatusSuspended
	t.terminated = true
	k.scheduleNextTaskLocked()
	next := k.current
	k.mu.Unlock()
	if next != nil && next != t {
		next.resumeCh <- struct{}{}
	}
}

// timeNow is a thin indirection over time.Now kept in one place so test
// code grounded in the kernel's metrics can see where wall-clock reads
// happen; the kernel itself never needs to fake time since it schedules
// on ticks, not on time.Now.
func timeNow() time.Time { return time.Now() }
