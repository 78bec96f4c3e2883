package rtkernel

import "github.com/joeycumines/logiface"

// Mutex is a priority mutex with optional priority inheritance, the Go
// analogue of mutexHandleType. Unlike sync.Mutex it is not reentrant and
// every operation takes the calling [Task] explicitly, since Go has no
// implicit "current task" the way taskPool.currentTask gives the C
// implementation.
type Mutex struct {
	kernel *Kernel

	locked bool
	owner  *Task
	// ownerDefaultPriority mirrors the original's int ownerDefaultPriority
	// field, where -1 is the "not currently boosted" sentinel: nil here
	// plays that role. Only one boost is ever recorded per mutex, not a
	// stack of boosts, matching mutex.c exactly.
	ownerDefaultPriority *uint8

	waitQueue taskQueue
}

// NewMutex constructs an unlocked mutex bound to k.
func NewMutex(k *Kernel) *Mutex {
	return &Mutex{kernel: k}
}

// Owner returns the task currently holding the mutex, or nil if unlocked.
func (m *Mutex) Owner() *Task {
	m.kernel.mu.Lock()
	defer m.kernel.mu.Unlock()
	return m.owner
}

// Lock acquires the mutex, blocking the calling task for up to waitTicks
// ticks ([NoWait] to never block, [MaxWait] to block indefinitely).
// Returns [ErrBusy] if waitTicks is [NoWait] and the mutex is already
// locked, or [ErrTimeout] if waitTicks elapses first.
func (m *Mutex) Lock(t *Task, waitTicks uint32) error {
	k := m.kernel
	k.mu.Lock()

	if k.opts.priorityInheritance && m.locked && m.owner != nil && t.priority < m.owner.priority {
		if m.ownerDefaultPriority == nil {
			dp := m.owner.priority
			m.ownerDefaultPriority = &dp
		}
		m.owner.priority = t.priority
		k.logAt(logiface.LevelDebug).
			Str("owner", m.owner.name).
			Str("waiter", t.name).
			Log("priority inheritance boost")
	}

	if !m.locked {
		m.locked = true
		m.owner = t
		k.mu.Unlock()
		return nil
	}

	if waitTicks == NoWait {
		k.mu.Unlock()
		return WrapError("rtkernel.Mutex.Lock", ErrBusy)
	}

	m.waitQueue.pushLocked(t)
	k.mu.Unlock()

	k.block(t, BlockReasonMutex, waitTicks)

	k.mu.Lock()
	success := t.wakeupReason == WakeupMutexLocked && m.owner == t
	k.mu.Unlock()
	if success {
		return nil
	}
	return WrapError("rtkernel.Mutex.Lock", ErrTimeout)
}

// Unlock releases the mutex. Returns [ErrNotOwner] if t does not hold the
// mutex; the ownership check comes first, so unlocking a mutex that nobody
// holds also returns [ErrNotOwner]. [ErrNotLocked] is returned when the
// ownership check passes on an unlocked mutex, which only a nil t can
// reach. If a priority
// boost was recorded for the outgoing owner, its original priority is
// restored before the next waiter (if any) is handed the lock.
func (m *Mutex) Unlock(t *Task) error {
	k := m.kernel
	k.mu.Lock()

	if m.owner != t {
		k.mu.Unlock()
		return WrapError("rtkernel.Mutex.Unlock", ErrNotOwner)
	}
	if !m.locked {
		k.mu.Unlock()
		return WrapError("rtkernel.Mutex.Unlock", ErrNotLocked)
	}

	if m.ownerDefaultPriority != nil {
		t.priority = *m.ownerDefaultPriority
		m.ownerDefaultPriority = nil
	}

	var switchRequired bool
	next := m.waitQueue.popLocked()
	m.owner = next
	if next != nil {
		k.setReadyLocked(next, WakeupMutexLocked)
		if next.priority <= t.priority {
			switchRequired = true
		}
	} else {
		m.locked = false
	}

	k.mu.Unlock()

	// The yield happens strictly after the critical section exits, exactly
	// as mutexUnlock in the original kernel calls taskYield() only after
	// EXIT_CRITICAL_SECTION.
	if switchRequired {
		t.Yield()
	}
	return nil
}
