package rtkernel

import "time"

// scheduleNextTaskLocked implements the original kernel's
// scheduleNextTask(): if the ready queue is empty there is nothing to do;
// if the current task is still running, it only yields the token when a
// ready task is of equal or higher priority (lower numeric value), in
// which case the current task is requeued as ready before the pop;
// otherwise the current task has already stopped running (blocked,
// suspended, or terminated) and the next ready task is taken
// unconditionally. Callers must hold k.mu.
func (k *Kernel) scheduleNextTaskLocked() {
	next := k.readyQueue.peekLocked()
	if next == nil {
		return
	}
	if k.current != nil && k.current.status == StatusRunning {
		if next.priority <= k.current.priority {
			k.readyQueue.pushLocked(k.current)
			k.current.status = StatusReady
			k.markReadySince(k.current)
		} else {
			return
		}
	}
	next = k.readyQueue.popLocked()
	if k.metrics.enabled && !next.readySince.IsZero() {
		k.metrics.recordReadyWait(timeNow().Sub(next.readySince))
		next.readySince = time.Time{}
	}
	next.status = StatusRunning
	k.current = next
}

// handoffLocked must be called with k.mu held, immediately after a state
// mutation and a call to scheduleNextTaskLocked. It returns the task that
// should now hold the run token (possibly unchanged) so the caller can
// release the lock before blocking on a channel.
func (k *Kernel) handoffLocked() (newCurrent *Task) {
	return k.current
}

// switchTo performs the actual run-token handoff outside the kernel lock:
// it wakes newCurrent if it differs from self, then, unless self is the
// one now holding the token, blocks until self is scheduled again. This
// is the Go analogue of the deferred PendSV/SVC trampoline: everything up
// to this call only decided who should run next, this call is what
// actually switches control.
func (k *Kernel) switchTo(self, newCurrent *Task, preempted bool) {
	if newCurrent == self {
		return
	}
	k.metrics.recordContextSwitch(preempted)
	if newCurrent != nil {
		select {
		case newCurrent.resumeCh <- struct{}{}:
		default:
		}
	}
	if self == nil {
		return
	}
	<-self.resumeCh
}

// Yield voluntarily gives up the run token, the Go analogue of taskYield.
// Unlike a blocking call, a yielding task is immediately re-queued as
// ready, so it resumes as soon as the scheduler picks it again.
func (t *Task) Yield() {
	k := t.kernel
	k.mu.Lock()
	if t.status == StatusRunning {
		t.status = StatusReady
		k.markReadySince(t)
		k.readyQueue.pushLocked(t)
	}
	k.scheduleNextTaskLocked()
	next := k.current
	k.mu.Unlock()
	k.switchTo(t, next, false)
}

// checkpoint is a lightweight "has the scheduler already chosen another
// task" poll: if k.current is no longer t, it hands the run token over and
// waits to be resumed. Unlike Yield it never requeues the caller, so a
// task that still holds the highest priority keeps running without being
// moved to the back of its priority band. No other function in the
// package calls it; Yield and the blocking calls hand the token over
// through switchTo directly.
func (t *Task) checkpoint() {
	k := t.kernel
	k.mu.Lock()
	next := k.current
	k.mu.Unlock()
	if next == t {
		return
	}
	k.switchTo(t, next, true)
}

// blockLocked marks t blocked for the given reason and, unless waitTicks
// is [MaxWait], registers it on the kernel's timeout list, then updates
// the scheduling decision. The caller is responsible for having already
// enqueued t onto whatever primitive wait queue is appropriate, and for
// holding k.mu, matching the original kernel's taskBlock contract under
// ENTER_CRITICAL_SECTION.
func (k *Kernel) blockLocked(t *Task, reason BlockReason, waitTicks uint32) {
	t.status = StatusBlocked
	t.blockedReason = reason
	t.wakeupReason = WakeupNone
	if waitTicks != MaxWait {
		t.remainingTicks = waitTicks
		k.timeouts.pushLocked(t)
	}
	k.scheduleNextTaskLocked()
}

// block is blockLocked plus the lock acquisition and the actual run-token
// handoff, for callers that aren't already inside a critical section.
func (k *Kernel) block(t *Task, reason BlockReason, waitTicks uint32) {
	k.mu.Lock()
	k.blockLocked(t, reason, waitTicks)
	next := k.current
	k.mu.Unlock()
	k.switchTo(t, next, false)
}

// setReadyLocked marks a blocked task ready again, the Go analogue of
// taskSetReady: it removes the task from the timeout list if present and
// pushes it onto the ready queue, but does not itself trigger a context
// switch — callers decide whether the new wakeup reason warrants an
// immediate switchTo or can simply wait for the next tick.
func (k *Kernel) setReadyLocked(t *Task, reason WakeupReason) {
	k.timeouts.removeLocked(t)
	t.status = StatusReady
	t.blockedReason = BlockReasonNone
	t.wakeupReason = reason
	k.markReadySince(t)
	k.readyQueue.pushLocked(t)
}

// Sleep blocks the calling task for the given number of ticks, the Go
// analogue of the tick-counted taskSleep; [Task.SleepDuration] is the
// time.Duration form. Sleeping for zero ticks is a no-op ([Task.Yield] should be
// used for that case instead).
func (t *Task) Sleep(ticks uint32) {
	if ticks == 0 {
		return
	}
	t.kernel.block(t, BlockReasonSleep, ticks)
}

// SleepDuration converts d to ticks using the kernel's configured tick
// interval and sleeps for that many ticks, rounding up so a caller never
// wakes early. This is the Go analogue of taskSleepMS/taskSleepUS.
func (t *Task) SleepDuration(d time.Duration) {
	k := t.kernel
	if d <= 0 {
		return
	}
	ticks := uint32((d + k.opts.tickInterval - 1) / k.opts.tickInterval)
	t.Sleep(ticks)
}

// Suspend marks t suspended: it is removed from the ready queue and the
// timeout list and will not run again until [Task.Resume] is called.
// Suspending a task other than the caller is supported, the Go analogue
// of taskSuspend taking an arbitrary handle.
func (t *Task) Suspend() {
	k := t.kernel
	k.mu.Lock()
	wasSelf := t == k.current
	k.readyQueue.removeLocked(t)
	k.timeouts.removeLocked(t)
	t.status = StatusSuspended
	if wasSelf {
		k.scheduleNextTaskLocked()
	}
	next := k.current
	k.mu.Unlock()
	if wasSelf {
		k.switchTo(t, next, false)
	}
}

// Resume makes a suspended task ready again, returning [ErrInvalid] if t
// was not suspended, matching int taskResume(taskHandleType*) in the
// original kernel.
func (t *Task) Resume() error {
	k := t.kernel
	k.mu.Lock()
	if t.status != StatusSuspended {
		k.mu.Unlock()
		return WrapError("rtkernel.Task.Resume", ErrInvalid)
	}
	k.setReadyLocked(t, WakeupResume)
	k.mu.Unlock()
	return nil
}
