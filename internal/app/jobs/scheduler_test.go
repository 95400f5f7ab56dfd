package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadlines struct {
	closed, reminded int
	err              error
}

func (f *fakeDeadlines) CloseExpired(context.Context) (int, error) {
	f.closed++
	return 2, f.err
}

func (f *fakeDeadlines) RemindClosingSoon(context.Context) (int, error) {
	f.reminded++
	return 0, nil
}

type fakeMailer struct{ calls int }

func (f *fakeMailer) RetryDue(context.Context) (int, int, error) {
	f.calls++
	return 1, 1, nil
}

type fakeTokens struct{ cutoff time.Time }

func (f *fakeTokens) CleanupExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	f.cutoff = now
	return 3, nil
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Cleanup() { f.calls++ }

var testSpecs = Specs{
	Deadline:   "*/15 * * * *",
	EmailRetry: "*/5 * * * *",
	Tokens:     "@hourly",
	Sweep:      "@every 10m",
}

func TestRegister_SchedulesEveryTarget(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	deadlines := &fakeDeadlines{}
	mailer := &fakeMailer{}
	tokens := &fakeTokens{}
	sweeper := &fakeSweeper{}

	require.NoError(t, s.Register(testSpecs, Targets{
		Scholarships: deadlines,
		Mailer:       mailer,
		Tokens:       tokens,
		Limiter:      sweeper,
	}))
	assert.Len(t, s.cron.Entries(), 5)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for _, name := range []string{JobCloseExpired, JobRemindClosing, JobEmailRetry, JobTokenCleanup, JobLimiterSweep} {
		require.NoError(t, s.RunNow(name), name)
	}
	assert.Equal(t, 1, deadlines.closed)
	assert.Equal(t, 1, deadlines.reminded)
	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, fixed, tokens.cutoff)
	assert.Equal(t, 1, sweeper.calls)
}

func TestRegister_SkipsNilTargets(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	require.NoError(t, s.Register(testSpecs, Targets{Mailer: &fakeMailer{}}))

	assert.Len(t, s.cron.Entries(), 1)
	assert.Error(t, s.RunNow(JobCloseExpired))
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	specs := testSpecs
	specs.Deadline = "not a cron line"

	err := s.Register(specs, Targets{Scholarships: &fakeDeadlines{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobCloseExpired)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	boom := errors.New("db down")
	require.NoError(t, s.Register(testSpecs, Targets{Scholarships: &fakeDeadlines{err: boom}}))

	assert.ErrorIs(t, s.RunNow(JobCloseExpired), boom)
}

func TestStop_ReturnsWhenIdle(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
