package rtkernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreTakeNoWaitDecrementsOrBusy(t *testing.T) {
	k := New()
	sem := NewSemaphore(k, 1, 1)
	task := newTestTask(t, "t", 5)

	require.NoError(t, sem.Take(task, NoWait))
	assert.Equal(t, uint32(0), sem.Count())

	err := sem.Take(task, NoWait)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSemaphoreGiveIncrementsUpToMax(t *testing.T) {
	k := New()
	sem := NewSemaphore(k, 0, 2)

	require.NoError(t, sem.Give())
	assert.Equal(t, uint32(1), sem.Count())
	require.NoError(t, sem.Give())
	assert.Equal(t, uint32(2), sem.Count())

	err := sem.Give()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSem)
	assert.Equal(t, uint32(2), sem.Count())
}

// TestSemaphoreGiveChecksMaxBeforeWaitQueue grounds the exact ordering of
// semaphoreGive: a full semaphore returns ErrNoSem even if (structurally
// impossible in practice, but worth pinning down) a waiter were present,
// because the max-count check is the very first thing Give does.
func TestSemaphoreGiveChecksMaxBeforeWaitQueue(t *testing.T) {
	k := New()
	sem := NewSemaphore(k, 1, 1)
	waiter := newTestTask(t, "waiter", 5)

	k.mu.Lock()
	sem.waitQueue.pushLocked(waiter)
	k.mu.Unlock()

	err := sem.Give()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSem)
	assert.Equal(t, uint32(1), sem.Count())
}

func TestSemaphoreGiveHandsDirectlyToWaiter(t *testing.T) {
	k := New()
	sem := NewSemaphore(k, 0, 1)
	waiter := newTestTask(t, "waiter", 5)

	k.mu.Lock()
	sem.waitQueue.pushLocked(waiter)
	k.mu.Unlock()

	require.NoError(t, sem.Give())
	// The unit went straight to the waiter, not into count.
	assert.Equal(t, uint32(0), sem.Count())

	k.mu.Lock()
	wakeup := waiter.wakeupReason
	status := waiter.status
	k.mu.Unlock()
	assert.Equal(t, WakeupSemaphoreTaken, wakeup)
	assert.Equal(t, StatusReady, status)
}
