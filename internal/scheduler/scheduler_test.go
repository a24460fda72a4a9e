package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobs(t *testing.T) {
	s := New()
	var runs int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	assert.True(t, s.IsRunning())

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New()
	require.Error(t, s.Add("bad", "every now and then", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("off", "", func(context.Context) error { return nil }))
	assert.False(t, s.IsRunning())
	s.Stop()
}
