// Package refresh repopulates the metrics cache from the snapshot source,
// one ticker at a time.
package refresh

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/store"
)

// Defaults for Options.
const (
	DefaultDelay          = 2 * time.Second
	DefaultMaxDelay       = 15 * time.Second
	DefaultMaxRetryPasses = 3
	DefaultRetryPause     = 30 * time.Second

	// A pass failing more than this share of its tickers slows the pacing down.
	slowdownFailureRate = 0.15
	slowdownFactor      = 1.5
)

// Collector produces a fresh MetricsRecord for one ticker.
type Collector interface {
	Collect(ctx context.Context, ticker string) (model.MetricsRecord, error)
}

// Options controls a single refresh run.
type Options struct {
	// Universe labels the run in logs and summaries.
	Universe string
	// Delay is the minimum spacing between source requests. Zero disables pacing.
	Delay time.Duration
	// MaxDelay caps the adaptive slowdown.
	MaxDelay time.Duration
	// SkipFresh leaves tickers whose cache entry is still fresh untouched.
	SkipFresh bool
	// MaxRetryPasses is how many extra passes are made over failed tickers.
	MaxRetryPasses int
	// RetryPause is the wait before each retry pass.
	RetryPause time.Duration
}

// DefaultOptions returns the options used by scheduled runs.
func DefaultOptions() Options {
	return Options{
		Delay:          DefaultDelay,
		MaxDelay:       DefaultMaxDelay,
		MaxRetryPasses: DefaultMaxRetryPasses,
		RetryPause:     DefaultRetryPause,
	}
}

// Summary reports the outcome of one refresh run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Universe      string        `json:"universe,omitempty"`
	Total         int           `json:"total"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Skipped       int           `json:"skipped"`
	FailedTickers []string      `json:"failed_tickers,omitempty"`
	RetryPasses   int           `json:"retry_passes"`
	FinalDelay    time.Duration `json:"final_delay"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Cancelled     bool          `json:"cancelled"`
}

// Duration returns how long the run took.
func (s Summary) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

// Status is a point-in-time view of the coordinator.
type Status struct {
	Running      bool          `json:"running"`
	Universe     string        `json:"universe,omitempty"`
	Done         int           `json:"done"`
	Total        int           `json:"total"`
	LastSummary  *Summary      `json:"last_summary,omitempty"`
	LastRunAt    time.Time     `json:"last_run_at,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
}

// Coordinator runs refreshes against a cache. At most one run is active at a time.
type Coordinator struct {
	collector Collector
	cache     *store.Cache
	log       *logger.Logger

	runMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(collector Collector, cache *store.Cache, log *logger.Logger) *Coordinator {
	return &Coordinator{
		collector: collector,
		cache:     cache,
		log:       log.WithField("component", "refresh"),
	}
}

// Refresh refreshes every ticker in the universe, waiting for any active run to finish first.
// Per-ticker failures never abort the run; they are reported in the Summary.
func (c *Coordinator) Refresh(ctx context.Context, tickers []string, opts Options) (*Summary, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.run(ctx, tickers, opts)
}

// TryRefresh is Refresh that refuses to wait: it returns model.ErrRefreshInProgress
// when another run is active.
func (c *Coordinator) TryRefresh(ctx context.Context, tickers []string, opts Options) (*Summary, error) {
	if !c.runMu.TryLock() {
		return nil, model.ErrRefreshInProgress
	}
	defer c.runMu.Unlock()
	return c.run(ctx, tickers, opts)
}

// Status returns the current run state and the last completed run.
func (c *Coordinator) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	st := c.status
	if st.LastSummary != nil {
		s := *st.LastSummary
		s.FailedTickers = append([]string(nil), s.FailedTickers...)
		st.LastSummary = &s
	}
	return st
}

// run holds the state of one refresh.
type run struct {
	c        *Coordinator
	opts     Options
	limiter  *rate.Limiter
	delay    time.Duration
	log      *logger.Logger
	failures map[string]error
}

func (c *Coordinator) run(ctx context.Context, tickers []string, opts Options) (*Summary, error) {
	if opts.Delay < 0 {
		return nil, errors.New("refresh: negative delay")
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.MaxDelay < opts.Delay {
		opts.MaxDelay = opts.Delay
	}

	summary := &Summary{
		RunID:     uuid.NewString(),
		Universe:  opts.Universe,
		Total:     len(tickers),
		StartedAt: c.cache.Now(),
	}
	log := c.log.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"universe": opts.Universe,
	})

	c.setRunning(opts.Universe, len(tickers))
	runningGauge.Set(1)
	defer runningGauge.Set(0)

	pending := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			summary.Skipped++
			continue
		}
		seen[t] = true

		if opts.SkipFresh {
			e, found, err := c.cache.Get(ctx, t)
			if err == nil && found && c.cache.IsFresh(e) {
				summary.Skipped++
				continue
			}
		}
		pending = append(pending, t)
	}
	tickersTotal.WithLabelValues(outcomeSkipped).Add(float64(summary.Skipped))
	c.advance(summary.Skipped)

	log.WithFields(map[string]interface{}{
		"tickers": len(pending),
		"skipped": summary.Skipped,
		"delay":   opts.Delay.String(),
	}).Info("refresh started")

	r := &run{
		c:        c,
		opts:     opts,
		limiter:  newLimiter(opts.Delay),
		delay:    opts.Delay,
		log:      log,
		failures: make(map[string]error),
	}

	failed, notReached := r.pass(ctx, pending, true)
	summary.Skipped += len(notReached)
	tickersTotal.WithLabelValues(outcomeSkipped).Add(float64(len(notReached)))
	cancelled := len(notReached) > 0 || ctx.Err() != nil
	r.adapt(len(failed), len(pending)-len(notReached))

	for pass := 1; pass <= opts.MaxRetryPasses && len(failed) > 0 && !cancelled; pass++ {
		log.WithFields(map[string]interface{}{
			"pass":   pass,
			"failed": len(failed),
			"pause":  opts.RetryPause.String(),
		}).Info("retrying failed tickers")

		if !sleep(ctx, opts.RetryPause) {
			cancelled = true
			break
		}
		summary.RetryPasses = pass

		attempted := len(failed)
		var left []string
		failed, left = r.pass(ctx, failed, false)
		// Tickers a cancelled retry pass never reached keep their earlier failure.
		failed = append(failed, left...)
		if len(left) > 0 || ctx.Err() != nil {
			cancelled = true
		}
		r.adapt(len(failed)-len(left), attempted-len(left))
	}

	sort.Strings(failed)
	summary.Failed = len(failed)
	summary.FailedTickers = failed
	summary.Succeeded = summary.Total - summary.Skipped - summary.Failed
	summary.FinalDelay = r.delay
	summary.Cancelled = cancelled
	summary.FinishedAt = c.cache.Now()

	tickersTotal.WithLabelValues(outcomeSucceeded).Add(float64(summary.Succeeded))
	tickersTotal.WithLabelValues(outcomeFailed).Add(float64(summary.Failed))
	result := "completed"
	if cancelled {
		result = "cancelled"
	}
	runsTotal.WithLabelValues(result).Inc()

	for _, t := range failed {
		log.WithField("ticker", t).WithError(r.failures[t]).Debug("ticker failed after all passes")
	}
	log.WithFields(map[string]interface{}{
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"skipped":      summary.Skipped,
		"retry_passes": summary.RetryPasses,
		"duration":     summary.Duration().String(),
		"cancelled":    summary.Cancelled,
	}).Info("refresh finished")

	c.finish(summary)
	return summary, nil
}

// pass refreshes tickers sequentially. It returns the tickers that failed and
// the tickers that were never attempted because ctx was cancelled. Progress
// only counts first attempts; retries re-visit tickers already counted.
func (r *run) pass(ctx context.Context, tickers []string, first bool) (failed, notReached []string) {
	for i, t := range tickers {
		if ctx.Err() != nil {
			return failed, append(notReached, tickers[i:]...)
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return failed, append(notReached, tickers[i:]...)
		}

		if err := r.refreshOne(ctx, t); err != nil {
			r.failures[t] = err
			failed = append(failed, t)
			r.log.WithField("ticker", t).WithError(err).Warn("ticker refresh failed, keeping previous entry")
		} else {
			delete(r.failures, t)
		}
		if first {
			r.c.advance(1)
		}
	}
	return failed, nil
}

// refreshOne fetches and stores a single ticker. The fetch is detached from
// ctx so cancellation never interrupts a ticker half way.
func (r *run) refreshOne(ctx context.Context, ticker string) error {
	fetchCtx := context.WithoutCancel(ctx)

	start := time.Now()
	rec, err := r.c.collector.Collect(fetchCtx, ticker)
	fetchSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if _, err := r.c.cache.Put(fetchCtx, rec); err != nil {
		return err
	}
	return nil
}

// adapt slows pacing down when too many of the attempted tickers failed.
func (r *run) adapt(failed, attempted int) {
	if attempted == 0 || r.delay == 0 {
		return
	}
	if float64(failed)/float64(attempted) <= slowdownFailureRate {
		return
	}
	next := time.Duration(float64(r.delay) * slowdownFactor)
	if next > r.opts.MaxDelay {
		next = r.opts.MaxDelay
	}
	if next == r.delay {
		return
	}
	r.log.WithFields(map[string]interface{}{
		"failed":    failed,
		"attempted": attempted,
		"delay":     next.String(),
	}).Warn("high failure rate, slowing down")
	r.delay = next
	r.limiter.SetLimit(rate.Every(next))
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// sleep waits for d or until ctx is done. It reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Coordinator) setRunning(universe string, total int) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.Running = true
	c.status.Universe = universe
	c.status.Done = 0
	c.status.Total = total
}

func (c *Coordinator) advance(n int) {
	c.statusMu.Lock()
	c.status.Done += n
	c.statusMu.Unlock()
}

func (c *Coordinator) finish(s *Summary) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.Running = false
	c.status.Universe = ""
	c.status.Done = 0
	c.status.Total = 0
	c.status.LastSummary = s
	c.status.LastRunAt = s.StartedAt
	c.status.LastDuration = s.Duration()
}
