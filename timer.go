package rtkernel

import "github.com/joeycumines/logiface"

// TimerMode selects whether a [Timer] re-arms itself after firing.
type TimerMode int

const (
	TimerOneShot TimerMode = iota
	TimerPeriodic
)

// timerTaskPriority matches TIMER_TASK_PRIORITY == TASK_HIGHEST_PRIORITY:
// the timer task preempts every application task so a handler queued by
// processTimersLocked runs at the very next scheduling point, instead of
// waiting behind application work.
const timerTaskPriority = HighestPriority

// Timer is a software timer, the Go analogue of timerHandleType. Starting
// a timer links it into the kernel's timer list, walked in full on every
// tick; stopping unlinks it. A timer's handler runs on the kernel's
// internal timer task, not on the tick goroutine, so handlers may call
// blocking primitives freely.
type Timer struct {
	kernel *Kernel

	mode          TimerMode
	intervalTicks uint32
	ticksToExpire uint32
	isRunning     bool
	handler       func()

	next *Timer
}

// NewTimer constructs a timer that will invoke handler after
// intervalTicks ticks, re-arming automatically if mode is
// [TimerPeriodic]. The timer is not armed until [Timer.Start] is called.
func NewTimer(k *Kernel, mode TimerMode, intervalTicks uint32, handler func()) *Timer {
	return &Timer{kernel: k, mode: mode, intervalTicks: intervalTicks, handler: handler}
}

// Start arms the timer, the Go analogue of timerStart. A no-op if the
// timer is already running.
func (tm *Timer) Start() {
	k := tm.kernel
	k.mu.Lock()
	defer k.mu.Unlock()
	if tm.isRunning {
		return
	}
	tm.isRunning = true
	tm.ticksToExpire = tm.intervalTicks
	k.timerListAddLocked(tm)
}

// Stop disarms the timer, the Go analogue of timerStop.
func (tm *Timer) Stop() {
	k := tm.kernel
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopTimerLocked(tm)
}

func (k *Kernel) stopTimerLocked(tm *Timer) {
	if !tm.isRunning {
		return
	}
	tm.isRunning = false
	k.timerListRemoveLocked(tm)
}

// timerListAddLocked prepends tm to the kernel's timer list, matching
// timerListNodeAdd.
func (k *Kernel) timerListAddLocked(tm *Timer) {
	tm.next = k.timerList
	k.timerList = tm
}

// timerListRemoveLocked removes tm from the kernel's timer list wherever
// it is, matching timerListNodeDelete's head-node and general cases.
func (k *Kernel) timerListRemoveLocked(tm *Timer) {
	if k.timerList == tm {
		k.timerList = tm.next
		tm.next = nil
		return
	}
	prev := k.timerList
	for prev != nil && prev.next != tm {
		prev = prev.next
	}
	if prev != nil {
		prev.next = tm.next
		tm.next = nil
	}
}

// processTimersLocked walks the timer list in full, the Go analogue of
// processTimers(): capturing the next node before any mutation so a
// one-shot timer stopping itself mid-walk doesn't break iteration.
func (k *Kernel) processTimersLocked() {
	node := k.timerList
	for node != nil {
		next := node.next
		if node.ticksToExpire > 0 {
			node.ticksToExpire--
		}
		if node.ticksToExpire == 0 {
			k.timerHandlers.pushLocked(node.handler)
			if k.timerTask.status == StatusBlocked {
				k.setReadyLocked(k.timerTask, WakeupTimerTimeout)
			}
			node.ticksToExpire = node.intervalTicks
			if node.mode == TimerOneShot {
				k.stopTimerLocked(node)
			}
		}
		node = next
	}
}

// handlerNode is one entry of the kernel's timer handler queue, the Go
// analogue of the malloc/free-backed timeoutHandlerQueue.
type handlerNode struct {
	fn   func()
	next *handlerNode
}

// handlerQueue is an explicit FIFO queue of pending timer callbacks.
type handlerQueue struct {
	head *handlerNode
	tail *handlerNode
}

func (q *handlerQueue) empty() bool { return q.head == nil }

func (q *handlerQueue) pushLocked(fn func()) {
	n := &handlerNode{fn: fn}
	if q.tail != nil {
		q.tail.next = n
	} else {
		q.head = n
	}
	q.tail = n
}

func (q *handlerQueue) popLocked() func() {
	n := q.head
	if n == nil {
		return nil
	}
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	return n.fn
}

// timerTaskEntry is the body of the kernel's internal timer task, the Go
// analogue of timerTaskFunction: pop and invoke every pending handler,
// then block until processTimersLocked has more work.
func timerTaskEntry(t *Task) {
	k := t.kernel
	for {
		k.mu.Lock()
		fn := k.timerHandlers.popLocked()
		if fn != nil {
			k.mu.Unlock()
			fn()
			continue
		}
		k.blockLocked(t, BlockReasonTimer, MaxWait)
		next := k.current
		k.mu.Unlock()
		k.switchTo(t, next, false)
		if t.terminated {
			return
		}
	}
}

func (k *Kernel) logTimerFire(name string) {
	k.logAt(logiface.LevelDebug).Str("timer", name).Log("timer fired")
}
