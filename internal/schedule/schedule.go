// Package schedule runs the periodic background refresh from the external
// calendar.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultTimeout bounds one run of the job.
const DefaultTimeout = 2 * time.Minute

// Job is the scheduled work. Its error is logged, never returned.
type Job func(ctx context.Context) error

// Options tunes a Scheduler. Zero values select UTC, DefaultTimeout and
// slog.Default.
type Options struct {
	Location *time.Location
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Scheduler runs a Job on a standard five-field cron schedule or a
// descriptor such as "@hourly" or "@every 30m". A run that is still going
// when the next one is due makes that run skip.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	job     Job
	timeout time.Duration
	logger  *slog.Logger
}

// New parses spec and prepares the scheduler. Call Start to begin.
func New(spec string, job Job, opts Options) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Scheduler{job: job, timeout: opts.Timeout, logger: opts.Logger}
	logger := cronLogger{opts.Logger}
	s.cron = cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := s.cron.AddFunc(spec, s.Run)
	if err != nil {
		return nil, fmt.Errorf("schedule.New: invalid schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh scheduled", "next", s.Next())
}

// Stop prevents new runs and waits for a running one to finish or for ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next returns when the job runs next. It is the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Run executes the job once, synchronously.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Warn("scheduled refresh failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.logger.Info("scheduled refresh done", "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
