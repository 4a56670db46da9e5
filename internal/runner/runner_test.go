package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FuncJob{JobName: "tasks", Spec: "@every 1m"})
	reg.Register(FuncJob{JobName: "login", Spec: "@every 5m"})
	reg.Register(FuncJob{JobName: "login", Spec: "@every 10m"})

	assert.Equal(t, []string{"login", "tasks"}, reg.Names())
	job, ok := reg.Get("login")
	require.True(t, ok)
	assert.Equal(t, "@every 10m", job.Schedule())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FuncJob{
		JobName:     "slow",
		MaxDuration: 20 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	r := NewRunner(reg)

	err := r.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Error(t, r.RunNow(context.Background(), "nope"))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FuncJob{JobName: "bad", Spec: "every now and then", Fn: func(context.Context) error { return nil }})

	err := NewRunner(reg).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule job bad")
}

func TestStartRunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	reg := NewRegistry()
	reg.Register(FuncJob{
		JobName: "tick",
		Spec:    "@every 1s",
		Fn: func(context.Context) error {
			runs.Add(1)
			return errors.New("failures are logged, not fatal")
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	require.NoError(t, NewRunner(reg).Start(ctx))
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}
