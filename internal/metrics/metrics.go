package metrics

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     bool
	metricsServer      *http.Server
)

// Metrics contains all the Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	StreamMessagesTotal *prometheus.CounterVec
	StreamParseFailures prometheus.Counter
	StreamReconnects    prometheus.Counter

	// Scoring metrics
	DomainsScoredTotal prometheus.Counter
	ScoreDistribution  prometheus.Histogram
	ScoringDuration    prometheus.Histogram

	// Alert metrics
	AlertsTotal *prometheus.CounterVec

	// Worker metrics
	WorkerProcessed      *prometheus.CounterVec
	WorkerErrors         *prometheus.CounterVec
	WorkerPanics         *prometheus.CounterVec
	QueueBackpressureHit *prometheus.CounterVec
}

// Global instance of metrics
var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection.
func EnableMetrics() {
	metricsEnabled = true
}

// IsMetricsEnabled returns whether metrics collection is enabled.
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// newMetrics creates and registers all metrics.
func newMetrics() *Metrics {
	durationBuckets := []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1}
	// Score buckets bracket the alert thresholds (56/68/76).
	scoreBuckets := []float64{0, 5, 15, 30, 45, 56, 68, 76, 100, 150, 250}

	return &Metrics{
		StreamMessagesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_stream_messages_total",
				Help: "Total number of stream messages received, by kind",
			},
			[]string{"kind"},
		),
		StreamParseFailures: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "certfisk_stream_parse_failures_total",
				Help: "Total number of stream payloads that failed to decode and were skipped",
			},
		),
		StreamReconnects: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "certfisk_stream_reconnects_total",
				Help: "Total number of websocket reconnect attempts",
			},
		),

		DomainsScoredTotal: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "certfisk_domains_scored_total",
				Help: "Total number of domains run through the scoring engine",
			},
		),
		ScoreDistribution: defaultRegisterer.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "certfisk_domain_score",
				Help:    "Distribution of domain suspicion scores",
				Buckets: scoreBuckets,
			},
		),
		ScoringDuration: defaultRegisterer.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "certfisk_scoring_duration_seconds",
				Help:    "Time spent scoring a single domain",
				Buckets: durationBuckets,
			},
		),

		AlertsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_alerts_total",
				Help: "Total number of alerts emitted, by severity tier",
			},
			[]string{"severity"},
		),

		WorkerProcessed: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_worker_processed_total",
				Help: "Total number of work items processed by a worker",
			},
			[]string{"worker_id"},
		),
		WorkerErrors: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_worker_errors_total",
				Help: "Total number of errors encountered by a worker",
			},
			[]string{"worker_id"},
		),
		WorkerPanics: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_worker_panics_total",
				Help: "Total number of panics recovered by a worker",
			},
			[]string{"worker_id"},
		),
		QueueBackpressureHit: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certfisk_queue_backpressure_hits_total",
				Help: "Number of times backpressure was applied due to a full worker queue",
			},
			[]string{"worker_id"},
		),
	}
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics.
func StartMetricsServer(addr string) error {
	if !metricsEnabled {
		return nil
	}

	metricsInitialized.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		metricsServer = &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		go func() {
			logrus.Infof("Starting metrics server on %s", addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("Metrics server error")
			}
		}()
	})

	return nil
}

// ShutdownMetricsServer gracefully shuts down the metrics server.
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		logrus.Info("Shutting down metrics server...")
		return metricsServer.Shutdown(ctx)
	}
	return nil
}
