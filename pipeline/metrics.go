// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itur_pipeline_rows_total",
			Help: "Rows processed by the batch pipeline, by status",
		},
		[]string{"status"},
	)

	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itur_pipeline_verifications_total",
			Help: "Variant verifications, by verdict",
		},
		[]string{"verdict"},
	)
)

// Metrics counts the outcomes of a batch.
type Metrics struct {
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

// Record counts one finished row.
func (m *Metrics) Record(s Status) {
	switch s {
	case StatusFound:
		m.Found++
	case StatusNotFound:
		m.NotFound++
	case StatusError:
		m.Errors++
	case StatusPending:
	}
}

// Merge adds the counts of o to m.
func (m *Metrics) Merge(o *Metrics) *Metrics {
	if o == nil {
		return m
	}

	m.Found += o.Found
	m.NotFound += o.NotFound
	m.Errors += o.Errors

	return m
}

// Total is the number of finished rows.
func (m Metrics) Total() int {
	return m.Found + m.NotFound + m.Errors
}
