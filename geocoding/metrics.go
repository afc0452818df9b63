// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itur_geocoding_requests_total",
			Help: "Total number of geocoding provider requests",
		},
		[]string{"provider", "kind", "outcome"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "itur_geocoding_request_duration_seconds",
			Help:    "Geocoding provider request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "kind"},
	)

	locateSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itur_geocoding_locate_steps_total",
			Help: "Locator strategy steps attempted, by outcome",
		},
		[]string{"step", "outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itur_geocoding_cache_lookups_total",
			Help: "Geocode cache lookups",
		},
		[]string{"result"},
	)
)

const (
	kindFreeText   = "free_text"
	kindStructured = "structured"
)

// outcome is the label value for a finished provider call.
func outcome(candidates []Candidate, err error) string {
	switch {
	case err != nil:
		if t, ok := errorTypeOf(err); ok {
			return "error_" + t.String()
		}

		return "error"
	case len(candidates) == 0:
		return "empty"
	default:
		return "ok"
	}
}

func recordStep(step Step, found bool, err error) {
	o := "miss"

	switch {
	case found:
		o = "found"
	case err != nil:
		o = "error"
	}

	locateSteps.WithLabelValues(step.String(), o).Inc()
}

type instrumentedProvider struct {
	name string
	next Provider
}

// Instrumented records request counts and latencies of p under name.
func Instrumented(name string, p Provider) Provider {
	return &instrumentedProvider{name: name, next: p}
}

func (i *instrumentedProvider) observe(kind string, start time.Time, candidates []Candidate, err error) {
	providerRequestDuration.WithLabelValues(i.name, kind).Observe(time.Since(start).Seconds())
	providerRequests.WithLabelValues(i.name, kind, outcome(candidates, err)).Inc()
}

func (i *instrumentedProvider) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	start := time.Now()
	candidates, err := i.next.Geocode(ctx, query)
	i.observe(kindFreeText, start, candidates, err)

	return candidates, err
}

func (i *instrumentedProvider) GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error) {
	start := time.Now()
	candidates, err := i.next.GeocodeStructured(ctx, q)
	i.observe(kindStructured, start, candidates, err)

	return candidates, err
}
