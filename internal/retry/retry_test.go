package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	var notified []int
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("dropdown did not open")
		}
		return nil
	}, func(attempt int, err error) {
		notified = append(notified, attempt)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func(attempt int) error {
		calls++
		return errors.New("attempt failed")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, "attempt failed", err.Error())
	assert.Equal(t, 2, calls)
}

func TestDoPermanentStopsEarly(t *testing.T) {
	sentinel := errors.New("element missing")
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func(int) error {
		calls++
		return Permanent(sentinel)
	}, nil)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), 0, time.Millisecond, func(int) error {
		calls++
		return errors.New("x")
	}, nil)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 10, 10*time.Millisecond, func(int) error {
		calls++
		cancel()
		return errors.New("x")
	}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPoll(t *testing.T) {
	t.Run("eventually satisfied", func(t *testing.T) {
		n := 0
		err := Poll(context.Background(), time.Second, time.Millisecond, func() error {
			n++
			if n < 4 {
				return errors.New("colorScheme is light")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("times out with last error", func(t *testing.T) {
		err := Poll(context.Background(), 30*time.Millisecond, 5*time.Millisecond, func() error {
			return errors.New("colorScheme is light")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "colorScheme is light")
		assert.Contains(t, err.Error(), "condition not met within")
	})
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
