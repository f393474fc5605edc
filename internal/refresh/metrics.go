package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuesentinel_refresh_tickers_total",
			Help: "Tickers processed by refresh runs, by outcome",
		},
		[]string{"outcome"},
	)

	fetchSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuesentinel_refresh_fetch_seconds",
			Help:    "Time spent fetching and deriving one ticker",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	runningGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "valuesentinel_refresh_running",
			Help: "1 while a refresh run is active",
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuesentinel_refresh_runs_total",
			Help: "Completed refresh runs, by result",
		},
		[]string{"result"},
	)
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)
