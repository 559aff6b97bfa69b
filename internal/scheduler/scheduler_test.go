package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJobs struct {
	exports atomic.Int32
	sweeps  atomic.Int32
	err     error
}

func (j *countingJobs) ExportAll(context.Context) error {
	j.exports.Add(1)
	return j.err
}

func (j *countingJobs) SweepExpiry(context.Context) error {
	j.sweeps.Add(1)
	return j.err
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(&countingJobs{}, Schedules{Export: "0 0 * * * *", ExpirySweep: "every tuesday"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register expiry_sweep job")

	// five-field expressions lack the seconds column
	_, err = New(&countingJobs{}, Schedules{Export: "0 * * * *", ExpirySweep: "0 0 6 * * *"}, nil, nil)
	assert.ErrorContains(t, err, "register export job")
}

func TestScheduler_RunsJobs(t *testing.T) {
	jobs := &countingJobs{}
	s, err := New(jobs, Schedules{Export: "* * * * * *", ExpirySweep: "* * * * * *"}, time.UTC, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return jobs.exports.Load() > 0 && jobs.sweeps.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	next := s.Next()
	require.Len(t, next, 2)
	for _, n := range next {
		assert.False(t, n.IsZero())
	}
}

func TestScheduler_FailingJobKeepsRunning(t *testing.T) {
	jobs := &countingJobs{err: errors.New("sheets offline")}
	s, err := New(jobs, Schedules{Export: "* * * * * *", ExpirySweep: "@yearly"}, time.UTC, nil)
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return jobs.exports.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	s.Stop()
	assert.Zero(t, jobs.sweeps.Load())
}

func TestScheduler_JobContextCancelledOnStop(t *testing.T) {
	s, err := New(&countingJobs{}, Schedules{Export: "@daily", ExpirySweep: "@daily"}, time.UTC, nil)
	require.NoError(t, err)

	var seen error
	run := s.job("probe", func(ctx context.Context) error {
		<-ctx.Done()
		seen = ctx.Err()
		return seen
	})
	s.Start()
	s.Stop()
	run()
	assert.ErrorIs(t, seen, context.Canceled)
}
