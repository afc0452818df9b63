// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocodingtest provides a deterministic geocoding.Provider for tests.
package geocodingtest

import (
	"context"
	"sync"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/spatial"
)

// Call is one request received by the fake.
type Call struct {
	Structured bool
	// Key is the free-text query, or StructuredKey for structured calls.
	Key string
}

func (c Call) String() string {
	if c.Structured {
		return "structured:" + c.Key
	}

	return "geocode:" + c.Key
}

// StructuredKey is the key a structured query is registered and logged under.
func StructuredKey(street, city string) string {
	return street + "|" + city
}

// At builds a candidate without geometry.
func At(lat, lng float64, label string) geocoding.Candidate {
	return geocoding.Candidate{Point: spatial.Point{Lat: lat, Lng: lng}, Label: label}
}

// Provider answers from canned data. Unknown queries return no candidates.
// It is safe for concurrent use.
type Provider struct {
	mu      sync.Mutex
	answers map[string][]geocoding.Candidate
	errs    map[string]error
	panics  map[string]any
	calls   []Call
}

// New returns an empty fake.
func New() *Provider {
	return &Provider{
		answers: make(map[string][]geocoding.Candidate),
		errs:    make(map[string]error),
		panics:  make(map[string]any),
	}
}

// On registers the answer for a free-text query.
func (p *Provider) On(query string, candidates ...geocoding.Candidate) *Provider {
	return p.set(query, candidates)
}

// OnStructured registers the answer for a structured query.
func (p *Provider) OnStructured(street, city string, candidates ...geocoding.Candidate) *Provider {
	return p.set(StructuredKey(street, city), candidates)
}

func (p *Provider) set(key string, candidates []geocoding.Candidate) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.answers[key] = candidates

	return p
}

// Fail makes key return err. key is a query or a StructuredKey.
func (p *Provider) Fail(key string, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errs[key] = err

	return p
}

// Panic makes key panic with v. key is a query or a StructuredKey.
func (p *Provider) Panic(key string, v any) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.panics[key] = v

	return p
}

// Calls returns the requests received so far, in order.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Call(nil), p.calls...)
}

// Keys returns Call.String for every request received so far.
func (p *Provider) Keys() []string {
	calls := p.Calls()
	keys := make([]string, len(calls))

	for i, c := range calls {
		keys[i] = c.String()
	}

	return keys
}

func (p *Provider) answer(c Call) ([]geocoding.Candidate, error) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	v, shouldPanic := p.panics[c.Key]
	err := p.errs[c.Key]
	candidates := p.answers[c.Key]
	p.mu.Unlock()

	if shouldPanic {
		panic(v)
	}

	if err != nil {
		return nil, err
	}

	return append([]geocoding.Candidate{}, candidates...), nil
}

// Geocode implements geocoding.Provider.
func (p *Provider) Geocode(ctx context.Context, query string) ([]geocoding.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.answer(Call{Key: query})
}

// GeocodeStructured implements geocoding.Provider.
func (p *Provider) GeocodeStructured(ctx context.Context, q geocoding.StructuredQuery) ([]geocoding.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.answer(Call{Structured: true, Key: StructuredKey(q.Street, q.City)})
}

var _ geocoding.Provider = (*Provider)(nil)
