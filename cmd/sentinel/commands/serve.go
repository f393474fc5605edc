package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ValueSentinel/internal/notifier"
	"ValueSentinel/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily refresh scheduler with a metrics endpoint",
	Long: `Run as a daemon: refresh the configured universe every day at
refresh.hour:refresh.minute, send a Telegram summary when configured and serve
Prometheus metrics on metrics.addr.

Endpoints:
  /metrics   Prometheus metrics
  /healthz   liveness
  /status    refresh state, cache stats and recent scheduled runs

Example:
  sentinel serve
  sentinel serve --run-now`,
	RunE: runServe,
}

var serveRunNow bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveRunNow, "run-now", false, "start a refresh immediately")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	tn := notifier.New(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, log)
	if _, ok := tn.(notifier.Noop); ok {
		log.Info("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, a.refresher, a.svc.ResolveUniverse, tn, log)
	sched.Digest = a.svc.Digest
	if a.cfg.Refresh.Enabled {
		if err := sched.Register(scheduler.Job{
			Spec:          scheduler.DailySpec(a.cfg.Refresh.Hour, a.cfg.Refresh.Minute),
			Universe:      a.cfg.Refresh.Universe,
			Options:       a.defaults,
			DigestPresets: a.cfg.Refresh.Digest,
		}); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		log.WithField("next", sched.Next().Format(time.RFC3339)).Info("daily refresh scheduled")
	} else {
		log.Warn("scheduled refresh disabled (refresh.enabled=false)")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		stats, err := a.svc.CacheStats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"refresh": a.svc.RefreshStatus(),
			"cache":   stats,
			"history": sched.History(),
		})
	})

	server := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", server.Addr).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	if serveRunNow || a.cfg.Refresh.RunOnStart {
		if a.cfg.Refresh.Enabled {
			// Stop, deferred above and run before a.Close, waits for this run.
			sched.Trigger(ctx)
		} else {
			log.Warn("--run-now ignored, scheduled refresh is disabled")
		}
	}

	log.Info("ValueSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	// Cancelling lets an active refresh finish its current ticker and stop.
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown HTTP server")
	}
	log.Info("ValueSentinel stopped")
	return nil
}
