// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instruments for the auth service.

Instruments are registered on an injected [prometheus.Registerer] so tests can
use a private registry. A nil *Auth or *HTTP is a valid no-op recorder.
*/
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutora"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Auth counts session manager operations.
type Auth struct {
	operations *prometheus.CounterVec
}

// NewAuth registers the auth counters on registerer.
func NewAuth(registerer prometheus.Registerer) *Auth {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "operations_total",
		Help:      "Session manager operations partitioned by operation, principal kind and outcome.",
	}, []string{"operation", "kind", "outcome"})

	registerer.MustRegister(operations)
	return &Auth{operations: operations}
}

// Observe records one operation. outcome is OutcomeSuccess or an error code.
func (m *Auth) Observe(operation, kind, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, kind, outcome).Inc()
}

// Operations exposes the underlying collector for assertions.
func (m *Auth) Operations() *prometheus.CounterVec {
	return m.operations
}

// HTTP tracks request latency per route pattern.
type HTTP struct {
	duration *prometheus.HistogramVec
}

// NewHTTP registers the request histogram on registerer.
func NewHTTP(registerer prometheus.Registerer) *HTTP {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	registerer.MustRegister(duration)
	return &HTTP{duration: duration}
}

// Observe records one finished request.
func (m *HTTP) Observe(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.duration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// Handler serves the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
