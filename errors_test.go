package rtkernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWrapErrorProducesOSError grounds the compatibility wrapper: every
// call to WrapError must return a real *OSError recoverable via errors.As,
// carrying the original kernel's integer return code, while still
// satisfying errors.Is against the sentinel it wraps.
func TestWrapErrorProducesOSError(t *testing.T) {
	err := WrapError("rtkernel.Mutex.Lock: busy", ErrBusy)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)

	var osErr *OSError
	require.ErrorAs(t, err, &osErr)
	assert.Equal(t, int(retBusy), osErr.Code)
	assert.Equal(t, "rtkernel.Mutex.Lock: busy: rtkernel: would block", osErr.Error())
}

func TestWrapErrorCodeTable(t *testing.T) {
	cases := []struct {
		sentinel error
		code     retCode
	}{
		{ErrInvalid, retInvalid},
		{ErrNoSpace, retNoSpace},
		{ErrNoData, retNoData},
		{ErrTimeout, retTimeout},
		{ErrBusy, retBusy},
		{ErrNotOwner, retNotOwner},
		{ErrNotLocked, retNotLocked},
		{ErrNoSem, retNoSem},
		{ErrNotRunning, retNotRunning},
		{ErrStopped, retStopped},
	}
	for _, c := range cases {
		err := WrapError("ctx", c.sentinel)
		var osErr *OSError
		require.ErrorAs(t, err, &osErr)
		assert.Equal(t, int(c.code), osErr.Code, "sentinel %v", c.sentinel)
		assert.True(t, errors.Is(err, c.sentinel))
	}
}

// TestOSErrorWithoutMessage grounds the zero-message rendering path used
// when a caller wraps a sentinel with no added context.
func TestOSErrorWithoutMessage(t *testing.T) {
	osErr := newOSError(ErrTimeout, "")
	assert.Equal(t, ErrTimeout.Error(), osErr.Error())
}

// TestOSErrorUnknownCauseDefaultsToInvalid grounds newOSError's fallback:
// a cause outside the sentinel table still produces a usable *OSError
// instead of panicking on the map lookup.
func TestOSErrorUnknownCauseDefaultsToInvalid(t *testing.T) {
	custom := errors.New("not a kernel sentinel")
	osErr := newOSError(custom, "wrapped")
	assert.Equal(t, int(retInvalid), osErr.Code)
	assert.ErrorIs(t, osErr, custom)
}
