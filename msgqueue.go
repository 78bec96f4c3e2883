package rtkernel

// MsgQueue is a bounded FIFO queue for inter-task communication, the Go
// analogue of msgQueueHandleType. Items are stored as `any` rather than
// memcpy'd fixed-size records, since Go's type system makes the
// original's itemSize/buffer byte-copy machinery unnecessary — callers
// that want a fixed item layout can pass a struct value.
type MsgQueue struct {
	kernel *Kernel

	buffer   []any
	capacity int
	readIdx  int
	writeIdx int
	count    int

	producerWaitQueue taskQueue
	consumerWaitQueue taskQueue
}

// NewMsgQueue constructs a message queue with the given capacity.
func NewMsgQueue(k *Kernel, capacity int) *MsgQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MsgQueue{kernel: k, buffer: make([]any, capacity), capacity: capacity}
}

// Len returns the number of queued items.
func (q *MsgQueue) Len() int {
	q.kernel.mu.Lock()
	defer q.kernel.mu.Unlock()
	return q.count
}

func (q *MsgQueue) full() bool  { return q.count == q.capacity }
func (q *MsgQueue) empty() bool { return q.count == 0 }

// writeLocked appends item and wakes one waiting consumer, the Go
// analogue of msgQueueBufferWrite. Caller must hold k.mu.
func (q *MsgQueue) writeLocked(k *Kernel, item any) {
	q.buffer[q.writeIdx] = item
	q.writeIdx = (q.writeIdx + 1) % q.capacity
	q.count++

	if consumer := q.consumerWaitQueue.popLocked(); consumer != nil {
		k.setReadyLocked(consumer, WakeupMsgQueueDataAvailable)
	}
}

// readLocked removes and returns the oldest item and wakes one waiting
// producer, the Go analogue of msgQueueBufferRead. Caller must hold k.mu.
func (q *MsgQueue) readLocked(k *Kernel) any {
	item := q.buffer[q.readIdx]
	q.buffer[q.readIdx] = nil
	q.readIdx = (q.readIdx + 1) % q.capacity
	q.count--

	if producer := q.producerWaitQueue.popLocked(); producer != nil {
		k.setReadyLocked(producer, WakeupMsgQueueSpaceAvailable)
	}
	return item
}

// Send enqueues item, blocking the calling task for up to waitTicks ticks
// if the queue is full. Returns [ErrNoSpace] if waitTicks is [NoWait] and
// the queue was already full, or [ErrTimeout] on expiry.
func (q *MsgQueue) Send(t *Task, item any, waitTicks uint32) error {
	k := q.kernel
	k.mu.Lock()

	if !q.full() {
		q.writeLocked(k, item)
		k.mu.Unlock()
		return nil
	}

	if waitTicks == NoWait {
		k.mu.Unlock()
		return WrapError("rtkernel.MsgQueue.Send", ErrNoSpace)
	}

	q.producerWaitQueue.pushLocked(t)
	k.mu.Unlock()

	k.block(t, BlockReasonMsgQueueSpace, waitTicks)

	k.mu.Lock()
	if t.wakeupReason == WakeupMsgQueueSpaceAvailable && !q.full() {
		q.writeLocked(k, item)
		k.mu.Unlock()
		return nil
	}
	k.mu.Unlock()
	return WrapError("rtkernel.MsgQueue.Send", ErrTimeout)
}

// Receive dequeues the oldest item, blocking the calling task for up to
// waitTicks ticks if the queue is empty. Returns [ErrNoData] if waitTicks
// is [NoWait] and the queue was already empty, or [ErrTimeout] on expiry.
func (q *MsgQueue) Receive(t *Task, waitTicks uint32) (any, error) {
	k := q.kernel
	k.mu.Lock()

	if !q.empty() {
		item := q.readLocked(k)
		k.mu.Unlock()
		return item, nil
	}

	if waitTicks == NoWait {
		k.mu.Unlock()
		return nil, WrapError("rtkernel.MsgQueue.Receive", ErrNoData)
	}

	q.consumerWaitQueue.pushLocked(t)
	k.mu.Unlock()

	k.block(t, BlockReasonMsgQueueData, waitTicks)

	k.mu.Lock()
	if t.wakeupReason == WakeupMsgQueueDataAvailable && !q.empty() {
		item := q.readLocked(k)
		k.mu.Unlock()
		return item, nil
	}
	k.mu.Unlock()
	return nil, WrapError("rtkernel.MsgQueue.Receive", ErrTimeout)
}
