// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitDelay is the minimum spacing between provider calls. It
// matches the Nominatim usage policy of one request per second.
const DefaultRateLimitDelay = time.Second

type rateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// RateLimited spaces calls to p at least delay apart, structured calls
// included. A non-positive delay disables limiting.
func RateLimited(p Provider, delay time.Duration) Provider {
	if delay <= 0 {
		return p
	}

	return &rateLimitedProvider{
		next:    p,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

func (r *rateLimitedProvider) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return nil
}

func (r *rateLimitedProvider) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	return r.next.Geocode(ctx, query)
}

func (r *rateLimitedProvider) GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	return r.next.GeocodeStructured(ctx, q)
}
