// Package scheduler triggers the daily cache refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/notifier"
	"ValueSentinel/internal/refresh"
)

// historySize is how many past runs are kept for status queries.
const historySize = 20

// Refresher runs a refresh unless one is already active.
type Refresher interface {
	TryRefresh(ctx context.Context, tickers []string, opts refresh.Options) (*refresh.Summary, error)
}

// Resolver turns a universe spec into a label and tickers.
type Resolver func(spec string) (string, []string, error)

// Digester renders a screen digest for the named preset.
type Digester func(ctx context.Context, preset string) (string, error)

// Job describes the scheduled refresh.
type Job struct {
	// Spec is a six-field cron expression (seconds first).
	Spec     string
	Universe string
	Options  refresh.Options
	// DigestPresets are screened and sent after each successful run.
	DigestPresets []string
}

// Run is one entry of the scheduler history.
type Run struct {
	StartedAt time.Time        `json:"started_at"`
	Summary   *refresh.Summary `json:"summary,omitempty"`
	Skipped   bool             `json:"skipped,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Scheduler manages the cron-driven refresh.
type Scheduler struct {
	Cron      *cron.Cron
	Refresher Refresher
	Resolve   Resolver
	Digest    Digester
	Notifier  notifier.Notifier
	Ctx       context.Context

	job Job
	log *logger.Logger

	mu      sync.Mutex
	history []Run

	async sync.WaitGroup
}

// DailySpec returns the cron expression for a daily run at hour:minute.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("0 %d %d * * *", minute, hour)
}

// NewScheduler creates a new Scheduler. A nil notifier disables notifications.
func NewScheduler(ctx context.Context, r Refresher, resolve Resolver, n notifier.Notifier, log *logger.Logger) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	log = log.WithField("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		Refresher: r,
		Resolve:   resolve,
		Notifier:  n,
		Ctx:       ctx,
		log:       log,
	}
}

// Register schedules the refresh job.
func (s *Scheduler) Register(job Job) error {
	s.job = job
	if _, err := s.Cron.AddFunc(job.Spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"spec":     job.Spec,
		"universe": job.Universe,
	}).Info("refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job, including any
// run started by Trigger, to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	s.log.Info("scheduler stopped")
}

// Next returns the next scheduled run time, or zero if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.Cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow executes the refresh job immediately (manual trigger / run on start).
func (s *Scheduler) RunNow(ctx context.Context) (*refresh.Summary, error) {
	return s.run(ctx)
}

// Trigger starts the refresh job in the background. Stop waits for it.
func (s *Scheduler) Trigger(ctx context.Context) {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		if _, err := s.run(ctx); err != nil && !errors.Is(err, model.ErrRefreshInProgress) {
			s.log.WithError(err).Error("triggered refresh failed")
		}
	}()
}

// History returns past runs, oldest first.
func (s *Scheduler) History() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Run(nil), s.history...)
}

func (s *Scheduler) refreshTask() {
	if _, err := s.run(s.Ctx); err != nil && !errors.Is(err, model.ErrRefreshInProgress) {
		s.log.WithError(err).Error("scheduled refresh failed")
	}
}

func (s *Scheduler) run(ctx context.Context) (*refresh.Summary, error) {
	rec := Run{StartedAt: time.Now()}

	label, tickers, err := s.Resolve(s.job.Universe)
	if err != nil {
		rec.Error = err.Error()
		s.record(rec)
		s.trySend(ctx, fmt.Sprintf("❌ Refresh not started: %v", err))
		return nil, fmt.Errorf("resolve universe: %w", err)
	}

	opts := s.job.Options
	opts.Universe = label
	s.log.WithFields(map[string]interface{}{
		"universe": label,
		"tickers":  len(tickers),
	}).Info("running scheduled refresh")

	summary, err := s.Refresher.TryRefresh(ctx, tickers, opts)
	if errors.Is(err, model.ErrRefreshInProgress) {
		s.log.Warn("refresh already running, skipping scheduled run")
		rec.Skipped = true
		s.record(rec)
		return nil, err
	}
	if err != nil {
		rec.Error = err.Error()
		s.record(rec)
		return nil, err
	}
	rec.Summary = summary
	s.record(rec)

	s.trySend(ctx, notifier.FormatRefreshSummary(summary))
	if !summary.Cancelled {
		s.sendDigests(ctx)
	}
	return summary, nil
}

func (s *Scheduler) sendDigests(ctx context.Context) {
	if s.Digest == nil {
		return
	}
	for _, p := range s.job.DigestPresets {
		msg, err := s.Digest(ctx, p)
		if err != nil {
			s.log.WithField("preset", p).WithError(err).Error("build digest")
			continue
		}
		s.trySend(ctx, msg)
	}
}

func (s *Scheduler) record(r Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}

// cronLogger routes cron's internal logging through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kv(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kv(keysAndValues)).WithError(err).Error(msg)
}

func kv(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
