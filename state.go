package rtkernel

import "sync/atomic"

// RunState is the lifecycle state of a Kernel, the Go analogue of the
// scheduler having been started (schedulerStart) versus not yet running.
type RunState uint32

const (
	StateNotStarted RunState = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// fastState is a lock-free state machine guarding Kernel lifecycle
// transitions, so Run/Shutdown/AddTask can check and change state without
// taking the scheduler lock.
type fastState struct {
	v atomic.Uint32
}

func (s *fastState) Load() RunState {
	return RunState(s.v.Load())
}

func (s *fastState) Store(state RunState) {
	s.v.Store(uint32(state))
}

// TryTransition performs a CAS from `from` to `to`, returning whether it
// succeeded.
func (s *fastState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
