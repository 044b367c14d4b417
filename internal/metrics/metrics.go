// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdesk"

// shareChannels are exported as their own label value; anything else is
// counted as "other" to bound label cardinality.
var shareChannels = map[string]bool{
	"facebook":  true,
	"x":         true,
	"twitter":   true,
	"linkedin":  true,
	"whatsapp":  true,
	"telegram":  true,
	"reddit":    true,
	"email":     true,
	"copy_link": true,
}

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Reading activity
	ReadingEventsTotal   *prometheus.CounterVec
	SessionsCreatedTotal prometheus.Counter
	SharesTotal          *prometheus.CounterVec
	RateLimitedTotal     prometheus.Counter

	LoginLockoutsTotal prometheus.Counter

	// Background jobs
	JobRunsTotal           *prometheus.CounterVec
	ArticlesPublishedTotal prometheus.Counter
}

// New creates and registers all metrics on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ReadingEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reading_events_total",
				Help:      "Article events recorded, by kind",
			},
			[]string{"kind"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reading_sessions_created_total",
				Help:      "Reading sessions created",
			},
		),
		SharesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shares_total",
				Help:      "Article shares recorded, by channel",
			},
			[]string{"channel"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Ingest requests rejected by the rate limiter",
			},
		),
		LoginLockoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_lockouts_total",
				Help:      "Accounts locked after repeated failed logins",
			},
		),
		JobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs, by job and outcome",
			},
			[]string{"job", "status"},
		),
		ArticlesPublishedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduled_articles_published_total",
				Help:      "Scheduled articles promoted to published",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReadingEventsTotal,
		m.SessionsCreatedTotal,
		m.SharesTotal,
		m.RateLimitedTotal,
		m.LoginLockoutsTotal,
		m.JobRunsTotal,
		m.ArticlesPublishedTotal,
	)
	return m
}

// NewRegistry returns a private registry with Go runtime, process and
// database pool collectors. db may be nil.
func NewRegistry(db *sql.DB) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
	}
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// EventRecorded counts one article event.
func (m *Metrics) EventRecorded(kind string) {
	m.ReadingEventsTotal.WithLabelValues(kind).Inc()
}

// SessionCreated counts one new reading session.
func (m *Metrics) SessionCreated() {
	m.SessionsCreatedTotal.Inc()
}

// ShareRecorded counts one share. channel is expected lowercased.
func (m *Metrics) ShareRecorded(channel string) {
	if !shareChannels[channel] {
		channel = "other"
	}
	m.SharesTotal.WithLabelValues(channel).Inc()
}

// JobRun counts one scheduled job run.
func (m *Metrics) JobRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// ArticlesPublished counts scheduled articles promoted by the publish job.
func (m *Metrics) ArticlesPublished(n int64) {
	m.ArticlesPublishedTotal.Add(float64(n))
}
