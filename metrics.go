package rtkernel

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks runtime statistics for a Kernel. All fields are safe for
// concurrent reads via [Kernel.Metrics], which returns a copy. Collection
// is enabled with [WithMetrics]; when disabled, recording is skipped
// entirely rather than writing to a discarded struct, so there is no
// per-tick overhead by default.
type Metrics struct {
	// ContextSwitches counts every handoff of the run token between two
	// distinct tasks, the Go analogue of a PendSV service count.
	ContextSwitches uint64
	// Preemptions counts context switches triggered by a tick discovering
	// a ready task of equal or higher priority than the running one, as
	// opposed to a voluntary yield or block.
	Preemptions uint64
	// ReadyWaitMax is the longest duration a task has spent ready but not
	// running, observed so far.
	ReadyWaitMax time.Duration
	// ReadyWaitMean is a running mean of ready-queue wait durations.
	ReadyWaitMean time.Duration
	// RunningMax is the longest task runtime observed so far. A runtime is
	// the wall-clock time from the start of a task's entry function to its
	// return, sampled once when it returns; tasks that never return are
	// not sampled.
	RunningMax time.Duration
	// RunningMean is a running mean of those task runtimes.
	RunningMean time.Duration
	// TopRuntimes holds the longest task runtimes seen (at most
	// topRuntimesK of them), descending by duration.
	TopRuntimes []TaskRuntimeSample
}

// TaskRuntimeSample is one entry of the top-K longest task runtimes
// tracked by a Kernel when metrics are enabled.
type TaskRuntimeSample struct {
	Task     string
	Duration time.Duration
}

const topRuntimesK = 8

// metricsState holds the live, mutable metrics bookkeeping embedded in a
// Kernel. Counters are atomic so scheduling-point code never blocks on the
// metrics lock; the latency/top-K tracking, which can't be done locklessly,
// is guarded by mu and only touched when metrics are enabled.
type metricsState struct {
	enabled bool

	contextSwitches atomic.Uint64
	preemptions     atomic.Uint64

	mu             sync.Mutex
	readyWaitCount uint64
	readyWaitSum   time.Duration
	readyWaitMax   time.Duration
	runCount       uint64
	runSum         time.Duration
	runMax         time.Duration
	topRuntimes    runtimeHeap
}

// markReadySince stamps t with the moment it became ready, so the next
// time it is scheduled onto the run token scheduleNextTaskLocked can
// sample how long it waited. A no-op when metrics are disabled, so
// marking a task ready never costs a clock read by default.
func (k *Kernel) markReadySince(t *Task) {
	if k.metrics.enabled {
		t.readySince = timeNow()
	}
}

func (m *metricsState) recordContextSwitch(preempted bool) {
	if !m.enabled {
		return
	}
	m.contextSwitches.Add(1)
	if preempted {
		m.preemptions.Add(1)
	}
}

func (m *metricsState) recordReadyWait(d time.Duration) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyWaitCount++
	m.readyWaitSum += d
	if d > m.readyWaitMax {
		m.readyWaitMax = d
	}
}

func (m *metricsState) recordRun(taskName string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCount++
	m.runSum += d
	if d > m.runMax {
		m.runMax = d
	}
	heap.Push(&m.topRuntimes, TaskRuntimeSample{Task: taskName, Duration: d})
	for len(m.topRuntimes) > topRuntimesK {
		heap.Pop(&m.topRuntimes)
	}
}

func (m *metricsState) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Metrics{
		ContextSwitches: m.contextSwitches.Load(),
		Preemptions:     m.preemptions.Load(),
		ReadyWaitMax:    m.readyWaitMax,
		RunningMax:      m.runMax,
	}
	if m.readyWaitCount > 0 {
		out.ReadyWaitMean = m.readyWaitSum / time.Duration(m.readyWaitCount)
	}
	if m.runCount > 0 {
		out.RunningMean = m.runSum / time.Duration(m.runCount)
	}
	sorted := make(runtimeHeap, len(m.topRuntimes))
	copy(sorted, m.topRuntimes)
	out.TopRuntimes = make([]TaskRuntimeSample, 0, len(sorted))
	for sorted.Len() > 0 {
		out.TopRuntimes = append(out.TopRuntimes, heap.Pop(&sorted).(TaskRuntimeSample))
	}
	// heap.Pop on a min-heap yields ascending order; reverse for descending.
	for i, j := 0, len(out.TopRuntimes)-1; i < j; i, j = i+1, j-1 {
		out.TopRuntimes[i], out.TopRuntimes[j] = out.TopRuntimes[j], out.TopRuntimes[i]
	}
	return out
}

// runtimeHeap is a container/heap min-heap of TaskRuntimeSample, ordered by
// Duration, used to maintain a bounded top-K of the longest task runs
// without retaining every sample observed.
type runtimeHeap []TaskRuntimeSample

func (h runtimeHeap) Len() int            { return len(h) }
func (h runtimeHeap) Less(i, j int) bool  { return h[i].Duration < h[j].Duration }
func (h runtimeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *runtimeHeap) Push(x any)         { *h = append(*h, x.(TaskRuntimeSample)) }
func (h *runtimeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
