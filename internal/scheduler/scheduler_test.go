package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"InflectionTracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (c *countingRunner) Symbol() string { return "OXY" }

func (c *countingRunner) Run(context.Context) (*tracker.Result, error) {
	c.calls.Add(1)
	return &tracker.Result{}, c.err
}

func TestRegister_RejectsBadExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRunner{})
	assert.Error(t, s.Register("not a cron"))
	// Five-field expressions are rejected; the parser expects seconds.
	assert.Error(t, s.Register("0 6 1 * *"))
	assert.NoError(t, s.Register("0 0 6 1 * *"))
}

func TestRunNow_SurvivesFailures(t *testing.T) {
	r := &countingRunner{err: errors.New("boom")}
	s := NewScheduler(context.Background(), r)
	s.RunNow()
	r.err = tracker.ErrRunInProgress
	s.RunNow()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(context.Background(), r)
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
