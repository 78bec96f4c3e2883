package rtkernel

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/logiface/stumpy"
)

// Event is the concrete logiface event type used by every Kernel. It's an
// alias for stumpy's event so callers can build loggers with
// stumpy.L.WithStumpy() directly, without this package re-exporting the
// whole of stumpy's configuration surface.
type Event = stumpy.Event

// NewLogger builds a default structured logger writing newline-delimited
// JSON to stderr, suitable for passing to [WithLogger]. Callers that want
// a different backend or sink construct their own *logiface.Logger[*Event]
// using stumpy.L (or another logiface backend) directly.
func NewLogger(level logiface.Level) *logiface.Logger[*Event] {
	return stumpy.L.New(
		stumpy.L.WithLevel(level),
		stumpy.L.WithStumpy(),
	)
}

// logAt is a nil-safe convenience wrapper: every call site can
// unconditionally call k.logAt(level)... even when the kernel was
// constructed without a logger, since a nil *logiface.Logger builds a
// disabled event.
func (k *Kernel) logAt(level logiface.Level) *logiface.Builder[*Event] {
	if k.opts.logger == nil {
		return (*logiface.Logger[*Event])(nil).Build(level)
	}
	return k.opts.logger.Build(level)
}
