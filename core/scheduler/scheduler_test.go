package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterJob_Validates(t *testing.T) {
	s := New(zap.NewNop(), time.Second)

	assert.Error(t, s.RegisterJob("bad", "not a cron", func(context.Context) error { return nil }))
	require.NoError(t, s.RegisterJob("sync", "@every 1h", func(context.Context) error { return nil }))
	assert.ErrorContains(t, s.RegisterJob("sync", "@daily", func(context.Context) error { return nil }), "already registered")

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sync", jobs[0].Name)
}

// TestRunJob tests that a job run records its outcome and honours the timeout.
func TestRunJob(t *testing.T) {
	s := New(nil, 20*time.Millisecond)
	require.NoError(t, s.RegisterJob("ok", "@daily", func(context.Context) error { return nil }))
	require.NoError(t, s.RegisterJob("slow", "@daily", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	require.NoError(t, s.RegisterJob("fail", "@daily", func(context.Context) error { return errors.New("boom") }))

	for _, name := range []string{"ok", "slow", "fail"} {
		s.runJob(s.jobs[name])
	}

	jobs := s.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "failed: boom", jobs[0].LastResult)
	assert.Equal(t, "success", jobs[1].LastResult)
	assert.Equal(t, "failed: context deadline exceeded", jobs[2].LastResult)
	assert.False(t, jobs[1].LastRun.IsZero())
}

func TestStartStop(t *testing.T) {
	s := New(zap.NewNop(), time.Second)
	require.NoError(t, s.RegisterJob("sync", "@every 1h", func(context.Context) error { return nil }))

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")

	next, ok := s.Next("sync")
	assert.True(t, ok)
	assert.True(t, next.After(time.Now()))

	_, ok = s.Next("missing")
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
