// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline drives a list of addresses through a Locator, one at a
// time, and collects an index-aligned batch of results.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/spatial"
)

// Status is the state of one row.
type Status int

const (
	// StatusPending rows have not been geocoded yet.
	StatusPending Status = iota
	// StatusFound rows carry a point.
	StatusFound
	// StatusNotFound rows were resolved cleanly to nothing.
	StatusNotFound
	// StatusError rows found nothing because the provider failed.
	StatusError
)

var statusNames = [...]string{"pending", "found", "not_found", "error"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)

			return nil
		}
	}

	return fmt.Errorf("unknown status %q", text)
}

// Outcome is the result of geocoding one address.
type Outcome struct {
	Status Status         `json:"status"`
	Point  *spatial.Point `json:"point,omitempty"`
	Label  string         `json:"label,omitempty"`
	Step   string         `json:"step,omitempty"`
	// Reason explains a StatusError.
	Reason string `json:"reason,omitempty"`
}

// OutcomeOf converts a Locator result.
func OutcomeOf(res geocoding.Result) Outcome {
	o := Outcome{Step: res.Step.String()}

	switch {
	case res.Found():
		p := *res.Point
		o.Status, o.Point, o.Label = StatusFound, &p, res.Label
	case res.Err != nil:
		o.Status, o.Reason = StatusError, res.Err.Error()
	default:
		o.Status = StatusNotFound
	}

	return o
}

// ResultRow is one input address with its outcome.
type ResultRow struct {
	Index      int                `json:"index"`
	Address    string             `json:"address"`
	Outcome    Outcome            `json:"outcome"`
	Renderings spatial.Renderings `json:"renderings"`
}

// Batch holds one row per input address, in input order.
type Batch struct {
	Rows []ResultRow `json:"rows"`
	// Processed counts rows that left StatusPending.
	Processed int     `json:"processed"`
	Metrics   Metrics `json:"metrics"`
}

// NewBatch returns a batch of pending rows for addresses.
func NewBatch(addresses []string) *Batch {
	b := &Batch{Rows: make([]ResultRow, len(addresses))}
	for i, a := range addresses {
		b.Rows[i] = ResultRow{Index: i, Address: a}
	}

	return b
}

// Complete reports whether every row was processed.
func (b *Batch) Complete() bool {
	return b != nil && b.Processed == len(b.Rows)
}

// Addresses returns the input addresses.
func (b *Batch) Addresses() []string {
	addrs := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		addrs[i] = r.Address
	}

	return addrs
}

// Locator resolves one address.
type Locator interface {
	Locate(ctx context.Context, address string) geocoding.Result
}

// LocatorFunc adapts a function to a Locator.
type LocatorFunc func(ctx context.Context, address string) geocoding.Result

// Locate implements Locator.
func (f LocatorFunc) Locate(ctx context.Context, address string) geocoding.Result {
	return f(ctx, address)
}

// Progress is reported after every row.
type Progress struct {
	Current int
	Total   int
	Row     ResultRow
}

// ProgressFunc receives progress updates on the goroutine calling Run.
type ProgressFunc func(Progress)

// Pipeline geocodes batches sequentially and remembers the last one.
type Pipeline struct {
	locator Locator
	run     sync.Mutex
	last    atomic.Pointer[Batch]
}

// New returns a pipeline over locator.
func New(locator Locator) *Pipeline {
	return &Pipeline{locator: locator}
}

// Last returns the most recent batch, or nil before the first run.
func (p *Pipeline) Last() *Batch {
	return p.last.Load()
}

// Run geocodes addresses in order. Concurrent calls are serialised.
//
// An empty list is a no-op: it returns nil, reports no progress and leaves
// Last untouched. Otherwise the batch always has len(addresses) rows and
// becomes Last. Cancellation is observed between rows; the rows not yet
// processed stay pending and Run returns the partial batch with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, addresses []string, progress ProgressFunc) (*Batch, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	p.run.Lock()
	defer p.run.Unlock()

	b := NewBatch(addresses)
	defer p.last.Store(b)

	for i := range b.Rows {
		if err := ctx.Err(); err != nil {
			return b, err
		}

		res := p.locate(ctx, b.Rows[i].Address)

		// a row interrupted by cancellation is left pending
		if !res.Found() && ctx.Err() != nil {
			return b, ctx.Err()
		}

		row := &b.Rows[i]
		row.Outcome = OutcomeOf(res)
		row.Renderings = row.Outcome.Point.Renderings()

		b.Processed++
		b.Metrics.Record(row.Outcome.Status)
		rowsProcessed.WithLabelValues(row.Outcome.Status.String()).Inc()

		if progress != nil {
			progress(Progress{Current: i + 1, Total: len(b.Rows), Row: *row})
		}
	}

	return b, nil
}

func (p *Pipeline) locate(ctx context.Context, addr string) (res geocoding.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ locator panicked on %q: %v", addr, r)

			res = geocoding.Result{Err: fmt.Errorf("locator panic: %v", r)}
		}
	}()

	return p.locator.Locate(ctx, addr)
}
