package upstream

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func healthy() error { return nil }

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Execute(failing), errBoom)
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Execute(healthy), ErrBackendUnavailable)
}

func TestBreakerClosesAfterHalfOpenSuccesses(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Millisecond})

	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.Equal(t, BreakerOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, BreakerHalfOpen, b.State())

	require.NoError(t, b.Execute(healthy))
	require.NoError(t, b.Execute(healthy))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Millisecond})

	require.ErrorIs(t, b.Execute(failing), errBoom)
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, BreakerHalfOpen, b.State())

	require.ErrorIs(t, b.Execute(failing), errBoom)
	assert.Equal(t, BreakerOpen, b.State())
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
}
