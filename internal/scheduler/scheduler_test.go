package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  int32
	err   error
	panic bool
}

func (j *countingJob) Run() error {
	atomic.AddInt32(&j.runs, 1)
	if j.panic {
		panic("job exploded")
	}
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("@every 5m", &countingJob{name: "refresh"}))
	require.NoError(t, s.AddJob("0 */5 * * * *", &countingJob{name: "seconds"}))
	require.NoError(t, s.AddJob("*/5 * * * *", &countingJob{name: "minutes"}))

	assert.Len(t, s.Status(), 3)
}

func TestAddJob_Errors(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{name: "bad"}))

	require.NoError(t, s.AddJob("@hourly", &countingJob{name: "dup"}))
	assert.Error(t, s.AddJob("@hourly", &countingJob{name: "dup"}))
}

func TestRunNow_RecordsStatus(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("nope")}

	require.NoError(t, s.AddJob("@hourly", ok))
	require.NoError(t, s.AddJob("@hourly", failing))

	assert.NoError(t, s.RunNow(ok))
	assert.EqualError(t, s.RunNow(failing), "nope")

	byName := map[string]JobStatus{}
	for _, st := range s.Status() {
		byName[st.Name] = st
	}

	assert.Equal(t, int64(1), byName["ok"].Runs)
	assert.Empty(t, byName["ok"].LastError)
	assert.False(t, byName["ok"].LastRun.IsZero())
	assert.Equal(t, "nope", byName["failing"].LastError)
}

func TestRunNow_Unregistered(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "adhoc"}

	assert.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))
	assert.Empty(t, s.Status())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	boom := &countingJob{name: "boom", panic: true}

	require.NoError(t, s.AddJob("@every 1s", job))
	require.NoError(t, s.AddJob("@every 1s", boom))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.runs) >= 1 && atomic.LoadInt32(&boom.runs) >= 1
	}, 5*time.Second, 50*time.Millisecond)
}
