// Package jobs runs the periodic maintenance work: deadline enforcement,
// reminder fan-out, outbox retries and housekeeping.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/pkg/metrics"
)

// Job names as they appear in logs and metrics.
const (
	JobCloseExpired  = "close_expired_scholarships"
	JobRemindClosing = "remind_closing_scholarships"
	JobEmailRetry    = "email_retry"
	JobTokenCleanup  = "refresh_token_cleanup"
	JobLimiterSweep  = "rate_limiter_sweep"
)

const defaultJobTimeout = 4 * time.Minute

// DeadlineRunner closes expired scholarships and warns about upcoming ones.
type DeadlineRunner interface {
	CloseExpired(ctx context.Context) (int, error)
	RemindClosingSoon(ctx context.Context) (int, error)
}

// EmailRetrier resends outbox rows whose backoff has elapsed.
type EmailRetrier interface {
	RetryDue(ctx context.Context) (sent, failed int, err error)
}

// TokenCleaner purges expired refresh tokens.
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper drops idle in-memory state.
type Sweeper interface {
	Cleanup()
}

// Specs are standard five-field cron expressions.
type Specs struct {
	Deadline   string
	EmailRetry string
	Tokens     string
	Sweep      string
}

// Targets are the components the default jobs drive. Nil targets are skipped.
type Targets struct {
	Scholarships DeadlineRunner
	Mailer       EmailRetrier
	Tokens       TokenCleaner
	Limiter      Sweeper
}

// Scheduler wraps a cron instance and records every run.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time

	mu   sync.Mutex
	jobs map[string]func(ctx context.Context) error
}

// NewScheduler creates a stopped scheduler. Overlapping runs of the same job
// are skipped and panics are recovered.
func NewScheduler(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:  logger,
		timeout: defaultJobTimeout,
		now:     time.Now,
		jobs:    make(map[string]func(ctx context.Context) error),
	}
}

// Add schedules fn under name.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.mu.Lock()
	s.jobs[name] = fn
	s.mu.Unlock()
	s.logger.Info().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Register schedules the default jobs against t.
func (s *Scheduler) Register(specs Specs, t Targets) error {
	type entry struct {
		name string
		spec string
		fn   func(ctx context.Context) error
	}
	var entries []entry

	if t.Scholarships != nil {
		entries = append(entries,
			entry{JobCloseExpired, specs.Deadline, func(ctx context.Context) error {
				n, err := t.Scholarships.CloseExpired(ctx)
				if n > 0 {
					s.logger.Info().Int("closed", n).Msg("Closed expired scholarships")
				}
				return err
			}},
			entry{JobRemindClosing, specs.Deadline, func(ctx context.Context) error {
				n, err := t.Scholarships.RemindClosingSoon(ctx)
				if n > 0 {
					s.logger.Info().Int("reminded", n).Msg("Sent deadline reminders")
				}
				return err
			}},
		)
	}
	if t.Mailer != nil {
		entries = append(entries, entry{JobEmailRetry, specs.EmailRetry, func(ctx context.Context) error {
			sent, failed, err := t.Mailer.RetryDue(ctx)
			if sent+failed > 0 {
				s.logger.Info().Int("sent", sent).Int("failed", failed).Msg("Retried queued emails")
			}
			return err
		}})
	}
	if t.Tokens != nil {
		entries = append(entries, entry{JobTokenCleanup, specs.Tokens, func(ctx context.Context) error {
			n, err := t.Tokens.CleanupExpiredTokens(ctx, s.now())
			if n > 0 {
				s.logger.Info().Int64("removed", n).Msg("Removed expired refresh tokens")
			}
			return err
		}})
	}
	if t.Limiter != nil {
		entries = append(entries, entry{JobLimiterSweep, specs.Sweep, func(context.Context) error {
			t.Limiter.Cleanup()
			return nil
		}})
	}

	for _, e := range entries {
		if err := s.Add(e.name, e.spec, e.fn); err != nil {
			return err
		}
	}
	return nil
}

// RunNow executes a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(name, fn)
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := s.now()
	err := fn(ctx)
	metrics.RecordJobRun(name, err == nil)

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("Job failed")
		return err
	}
	s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("Job finished")
	return nil
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
