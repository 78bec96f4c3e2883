// Package rtkernel implements the task, scheduler, and synchronization core
// of a fixed-priority preemptive RTOS, the way it would look if the kernel
// described in pdlsurya/myRTOS had been written for a Go runtime instead of
// a Cortex-M stack.
//
// # Architecture
//
// A [Kernel] owns a single run token: at any instant exactly one [Task]
// goroutine is permitted to execute application code. Every other
// registered task is parked on its own resume channel, waiting for the
// scheduler to hand the token back. Tasks give up the token at scheduling
// points ([Task.Yield], [Task.Sleep], and every blocking call on a
// [Mutex], [Semaphore], [CondVar], or [MsgQueue]) — Go has no maskable
// interrupt to reach into a running goroutine and preempt it mid-statement,
// so a higher-priority task becoming ready only takes effect the next time
// the running task reaches one of those points. This mirrors the real
// kernel's own split between "PendSV pending" and "PendSV serviced".
//
// # Scheduling
//
// Tasks are ordered strictly by priority (lower value runs first) with
// FIFO order among equal priorities, exactly as the fixed-priority ready
// queue in the original kernel. [Kernel.Run] starts an idle task at the
// lowest priority so the ready queue is never empty once the kernel is
// running.
//
// # Synchronization
//
// [Mutex] implements optional priority inheritance; [Semaphore] is a
// counting semaphore with direct unit hand-off to a waiter; [CondVar]
// follows the unlock/wait/relock protocol of a classic condition variable;
// [MsgQueue] is a bounded FIFO with blocking send and receive. All four
// block the calling task on the kernel's internal wait queues rather than
// on a Go channel, so their wake-up ordering matches the original kernel's
// semantics rather than whatever order runtime.chansend happens to pick.
//
// # Timers
//
// [Timer] expiry is detected on the kernel's tick goroutine, the software
// analogue of a SysTick handler, which queues the handler and re-arms
// periodic timers; the queued handlers then run on the kernel's internal
// timer task.
//
// # Usage
//
//	k := rtkernel.New(rtkernel.WithTickInterval(time.Millisecond))
//	producer, _ := rtkernel.NewTask("producer", 5, producerEntry, nil)
//	consumer, _ := rtkernel.NewTask("consumer", 5, consumerEntry, nil)
//	k.AddTask(producer)
//	k.AddTask(consumer)
//	if err := k.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package rtkernel
