/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package metrics exposes the Prometheus instrumentation for the rule
// service: HTTP traffic, snapshot contents and transform activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rulesLoaded        *prometheus.GaugeVec
	reloadsTotal       *prometheus.CounterVec
	transformMatch     *prometheus.CounterVec
	snapshotGeneration prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "suriview_requests_total", Help: "Total API requests"},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "suriview_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rulesLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "suriview_rules_loaded", Help: "Rules in the current snapshot"},
			[]string{"source"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "suriview_reloads_total", Help: "Total snapshot reloads"},
			[]string{"status"},
		),
		transformMatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "suriview_transform_matches_total", Help: "Rules matched per transform at load"},
			[]string{"transform"},
		),
		snapshotGeneration: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "suriview_snapshot_generation", Help: "Current snapshot generation"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rulesLoaded,
		m.reloadsTotal,
		m.transformMatch,
		m.snapshotGeneration,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished API request.
func (m *Metrics) ObserveRequest(route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveSnapshot records the contents of a freshly swapped snapshot.
func (m *Metrics) ObserveSnapshot(generation uint64, perSource map[string]int) {
	if m == nil {
		return
	}
	m.rulesLoaded.Reset()
	for source, count := range perSource {
		m.rulesLoaded.WithLabelValues(source).Set(float64(count))
	}
	m.snapshotGeneration.Set(float64(generation))
}

// ObserveReload counts one reload attempt by outcome.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.reloadsTotal.WithLabelValues(status).Inc()
}

// ObserveTransform records how many rules a transform touched at load.
func (m *Metrics) ObserveTransform(id string, matched int) {
	if m == nil {
		return
	}
	m.transformMatch.WithLabelValues(id).Add(float64(matched))
}
