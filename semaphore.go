package rtkernel

// Semaphore is a counting semaphore with a fixed maximum count, the Go
// analogue of semaphoreHandleType. Give hands a unit directly to the next
// waiter instead of incrementing the count and waking it separately, and
// — matching semaphore.c exactly — never triggers a context switch
// itself, unlike [Mutex.Unlock]. A waiter only actually runs once the
// scheduler reaches it, so semaphoreGive is safe to call from a context
// that must not itself yield.
type Semaphore struct {
	kernel *Kernel

	count    uint32
	maxCount uint32

	waitQueue taskQueue
}

// NewSemaphore constructs a counting semaphore starting at initialCount,
// saturating at maxCount.
func NewSemaphore(k *Kernel, initialCount, maxCount uint32) *Semaphore {
	return &Semaphore{kernel: k, count: initialCount, maxCount: maxCount}
}

// Count returns the current count.
func (s *Semaphore) Count() uint32 {
	s.kernel.mu.Lock()
	defer s.kernel.mu.Unlock()
	return s.count
}

// Take decrements the semaphore, blocking the calling task for up to
// waitTicks ticks if the count is zero. Returns [ErrBusy] if waitTicks is
// [NoWait] and the count was already zero, or [ErrTimeout] on expiry.
func (s *Semaphore) Take(t *Task, waitTicks uint32) error {
	k := s.kernel
	k.mu.Lock()

	if s.count != 0 {
		s.count--
		k.mu.Unlock()
		return nil
	}

	if waitTicks == NoWait {
		k.mu.Unlock()
		return WrapError("rtkernel.Semaphore.Take", ErrBusy)
	}

	s.waitQueue.pushLocked(t)
	k.mu.Unlock()

	k.block(t, BlockReasonSemaphore, waitTicks)

	k.mu.Lock()
	success := t.wakeupReason == WakeupSemaphoreTaken
	k.mu.Unlock()
	if success {
		return nil
	}
	return WrapError("rtkernel.Semaphore.Take", ErrTimeout)
}

// Give releases one unit of the semaphore. If a task is waiting, the unit
// is transferred to it directly (the count is not incremented); otherwise
// the count increments, saturating at maxCount. Returns [ErrNoSem] if the
// semaphore is already at its maximum count; this check comes first, before
// any waiter is considered.
func (s *Semaphore) Give() error {
	k := s.kernel
	k.mu.Lock()
	defer k.mu.Unlock()

	if s.count == s.maxCount {
		return WrapError("rtkernel.Semaphore.Give", ErrNoSem)
	}

	next := s.waitQueue.popLocked()
	if next != nil {
		k.setReadyLocked(next, WakeupSemaphoreTaken)
	} else {
		s.count++
	}
	return nil
}
