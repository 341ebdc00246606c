// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "praise"

	kindLabel   = "kind"
	fromLabel   = "from"
	toLabel     = "to"
	resultLabel = "result"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	submissions     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	closeConflicts  prometheus.Counter
	closeDuration   *prometheus.HistogramVec
	underQuantified prometheus.Counter
	assignmentLoad  prometheus.Histogram
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantifications_submitted_total",
			Help:      "number of quantifications accepted, by judgment kind",
		}, []string{kindLabel}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_transitions_total",
			Help:      "number of period state transitions",
		}, []string{fromLabel, toLabel}),
		closeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "close_version_conflicts_total",
			Help:      "number of close attempts that lost the period version check",
		}),
		closeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "close_duration_seconds",
			Help:      "time spent closing a period, including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{resultLabel}),
		underQuantified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "under_quantified_items_total",
			Help:      "number of closed praise items with no scored quantification",
		}),
		assignmentLoad: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assignment_load_items",
			Help:      "items assigned per quantifier in an assignment run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	err := errors.Join(
		registerer.Register(m.submissions),
		registerer.Register(m.transitions),
		registerer.Register(m.closeConflicts),
		registerer.Register(m.closeDuration),
		registerer.Register(m.underQuantified),
		registerer.Register(m.assignmentLoad),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) Submitted(kind string) {
	if m == nil {
		return
	}
	m.submissions.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func (m *Metrics) Transitioned(from, to string) {
	if m == nil {
		return
	}
	m.transitions.With(prometheus.Labels{fromLabel: from, toLabel: to}).Inc()
}

func (m *Metrics) CloseConflict() {
	if m == nil {
		return
	}
	m.closeConflicts.Inc()
}

// Closed records one close call. result is "ok" or "error".
func (m *Metrics) Closed(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.closeDuration.With(prometheus.Labels{resultLabel: result}).Observe(took.Seconds())
}

func (m *Metrics) UnderQuantified(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.underQuantified.Add(float64(n))
}

// Assigned observes the per-quantifier loads of one assignment run.
func (m *Metrics) Assigned(loads map[string]int) {
	if m == nil {
		return
	}
	for _, n := range loads {
		m.assignmentLoad.Observe(float64(n))
	}
}
