package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/core"
)

func fastPolicy() Policy {
	return Policy{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
		Deadline:        time.Second,
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(), "op", core.IsTransient, func() error {
		attempts++
		if attempts < 3 {
			return core.IOError("f.py", assert.AnError)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestNeverRetriesLogicalErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(), "op", core.IsTransient, func() error {
		attempts++
		return core.WriteConflictError("C.f", "a", "b")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrWriteConflict)
	assert.Equal(t, 1, attempts)
}

func TestBoundedAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(), "op", core.IsTransient, func() error {
		attempts++
		return core.IOError("f.py", assert.AnError)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIO)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, 4, attempts)
}

func TestDeadlineSurfacesAsTimeout(t *testing.T) {
	policy := Policy{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		MaxRetries:      100,
		Deadline:        120 * time.Millisecond,
	}
	err := Do(context.Background(), policy, "slow op", core.IsTransient, func() error {
		return core.IOError("f.py", assert.AnError)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestSuccessFirstTry(t *testing.T) {
	err := Do(context.Background(), fastPolicy(), "op", core.IsTransient, func() error {
		return nil
	})
	assert.NoError(t, err)
}
