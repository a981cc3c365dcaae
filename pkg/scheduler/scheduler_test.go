package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	runs atomic.Int32
}

func (t *countingTask) Name() string { return "counting" }

func (t *countingTask) RunOnce(ctx context.Context) {
	t.runs.Add(1)
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	task := &countingTask{}
	s, err := NewScheduler(task, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewScheduler_RejectsZeroInterval(t *testing.T) {
	_, err := NewScheduler(&countingTask{}, 0)
	assert.Error(t, err)
}
