package rtkernel

import (
	"context"
	"time"

	"github.com/joeycumines/logiface"
)

// tickLoop is the Go analogue of the SysTick interrupt: on every tick it
// processes software timers, checks the blocked-timeout list, and updates
// the scheduler's idea of which task should be current. It never itself
// forces a running goroutine to stop executing Go code — see doc.go for
// why that isn't possible — so the actual handoff completes the next time
// any task reaches a scheduling point, most reliably the idle task, whose
// entire body is a tight Yield loop.
func (k *Kernel) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(k.opts.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.tick()
		}
	}
}

// tick runs one scheduler tick: processTimers, then checkTimeout, then a
// scheduling decision, matching the original SYSTICK_HANDLER's ordering
// exactly (timers before blocked-task timeouts before rescheduling).
func (k *Kernel) tick() {
	k.mu.Lock()
	k.tickCount++
	k.processTimersLocked()
	if !k.timeouts.empty() {
		k.checkTimeoutLocked()
	}
	prev := k.current
	prevRunning := prev != nil && prev.status == StatusRunning
	k.scheduleNextTaskLocked()
	if prevRunning && k.current != prev && k.metrics.enabled {
		k.metrics.preemptions.Add(1)
	}
	k.mu.Unlock()
}

func (l *timeoutList) empty() bool { return l.head == nil }

// checkTimeoutLocked walks the blocked-timeout list in full, the Go
// analogue of checkTimeout(): the next node is captured before any
// mutation because waking a task removes it from this list mid-walk.
func (k *Kernel) checkTimeoutLocked() {
	node := k.timeouts.head
	for node != nil {
		next := node.timeoutNext
		if node.remainingTicks > 0 {
			node.remainingTicks--
		}
		if node.remainingTicks == 0 {
			reason := WakeupWaitTimeout
			if node.blockedReason == BlockReasonSleep {
				reason = WakeupSleepTimeout
			}
			k.setReadyLocked(node, reason)
			k.logAt(logiface.LevelDebug).Str("task", node.name).Log("wait timed out")
		}
		node = next
	}
}
