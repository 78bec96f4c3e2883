package rtkernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask("no-entry", 5, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	task, err := NewTask("ok", LowestPriority, func(*Task) {}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", task.Name())
	assert.Equal(t, LowestPriority, task.Priority())
	assert.Equal(t, StatusReady, task.Status())
}

func TestNewTaskAcceptsLowestPriorityBoundary(t *testing.T) {
	// LowestPriority is already the maximum representable uint8, so no
	// out-of-range priority can reach NewTask; this pins the boundary
	// value as accepted.
	task, err := NewTask("boundary", LowestPriority, func(*Task) {}, nil)
	require.NoError(t, err)
	assert.Equal(t, LowestPriority, task.Priority())
}
