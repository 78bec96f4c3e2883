package rtkernel

import (
	"time"

	"github.com/joeycumines/logiface"
)

// kernelOptions holds configuration applied at [New].
type kernelOptions struct {
	tickInterval         time.Duration
	priorityInheritance  bool
	tasksRunPrivileged   bool
	logger               *logiface.Logger[*Event]
	metricsEnabled       bool
}

// Option configures a Kernel instance.
type Option interface {
	applyKernel(*kernelOptions)
}

type kernelOptionFunc func(*kernelOptions)

func (f kernelOptionFunc) applyKernel(opts *kernelOptions) { f(opts) }

// WithTickInterval sets the wall-clock duration of one scheduler tick, the
// Go analogue of the SysTick reload value. Defaults to one millisecond.
func WithTickInterval(d time.Duration) Option {
	return kernelOptionFunc(func(opts *kernelOptions) {
		if d > 0 {
			opts.tickInterval = d
		}
	})
}

// WithPriorityInheritance enables or disables mutex priority inheritance,
// the Go analogue of the MUTEX_USE_PRIORITY_INHERITANCE build flag.
// Enabled by default.
func WithPriorityInheritance(enabled bool) Option {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.priorityInheritance = enabled
	})
}

// WithTasksRunPrivileged documents the TASKS_RUN_PRIVILEGED build flag of
// the original kernel, which chose between an SVC-mediated yield and a
// direct (privileged) scheduler call. Every task in this package already
// runs as a plain goroutine with no privilege separation, so this option
// is accepted for source compatibility with callers porting configuration
// from the original kernel but does not change behavior.
func WithTasksRunPrivileged(enabled bool) Option {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.tasksRunPrivileged = enabled
	})
}

// WithLogger sets the structured logger used for kernel events: kernel
// start, mutex priority-inheritance boosts, and wait timeouts. A nil
// logger (the default) is a silent no-op.
func WithLogger(logger *logiface.Logger[*Event]) Option {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.logger = logger
	})
}

// WithMetrics enables runtime metrics collection, retrievable via
// [Kernel.Metrics]. Adds a bounded amount of bookkeeping per scheduling
// point; disabled by default.
func WithMetrics(enabled bool) Option {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.metricsEnabled = enabled
	})
}

func resolveOptions(opts []Option) *kernelOptions {
	cfg := &kernelOptions{
		tickInterval:        time.Millisecond,
		priorityInheritance: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyKernel(cfg)
	}
	return cfg
}
