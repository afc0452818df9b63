// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jcodagnone/itur/spatial"
)

// RelativeTolerance is how close, per axis, a variant must land to count as
// the same place.
const RelativeTolerance = 1e-4

// ErrNoBatch is returned when verifying before any batch ran.
var ErrNoBatch = errors.New("no batch has been run")

// Verdict compares a variant's location with the row's.
type Verdict int

const (
	// VerdictNotFound means the variant resolved to nothing.
	VerdictNotFound Verdict = iota
	// VerdictMatch means the variant landed on the row's point.
	VerdictMatch
	// VerdictMismatch means the variant landed elsewhere, or the row had no
	// point to compare with.
	VerdictMismatch
)

var verdictNames = [...]string{"not_found", "match", "mismatch"}

func (v Verdict) String() string {
	if v >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}

	return fmt.Sprintf("Verdict(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Verification is the result of geocoding a variant of a row's address.
type Verification struct {
	Index   int            `json:"index"`
	Variant string         `json:"variant"`
	Verdict Verdict        `json:"verdict"`
	Point   *spatial.Point `json:"point,omitempty"`
	Label   string         `json:"label,omitempty"`
	// DistanceMeters from the row's point, when both exist.
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// isClose mirrors a relative tolerance comparison: |a-b| <= tol * max(|a|, |b|).
func isClose(a, b, tol float64) bool {
	if a == b {
		return true
	}

	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// Verify geocodes variant with locator and compares the result with row.
func Verify(ctx context.Context, locator Locator, row ResultRow, variant string) Verification {
	v := Verification{Index: row.Index, Variant: variant}

	res := locator.Locate(ctx, variant)
	if !res.Found() {
		v.Verdict = VerdictNotFound
		if res.Err != nil {
			v.Reason = res.Err.Error()
		}

		verifications.WithLabelValues(v.Verdict.String()).Inc()

		return v
	}

	p := *res.Point
	v.Point, v.Label = &p, res.Label
	v.Verdict = VerdictMismatch

	if orig := row.Outcome.Point; orig != nil {
		v.DistanceMeters = orig.HaversineDistance(&p)

		if isClose(p.Lat, orig.Lat, RelativeTolerance) && isClose(p.Lng, orig.Lng, RelativeTolerance) {
			v.Verdict = VerdictMatch
		}
	}

	verifications.WithLabelValues(v.Verdict.String()).Inc()

	return v
}

// Verify checks a variant against row index of the last batch.
func (p *Pipeline) Verify(ctx context.Context, index int, variant string) (Verification, error) {
	b := p.Last()
	if b == nil {
		return Verification{}, ErrNoBatch
	}

	if index < 0 || index >= len(b.Rows) {
		return Verification{}, fmt.Errorf("row %d out of range [0, %d)", index, len(b.Rows))
	}

	return Verify(ctx, p.locator, b.Rows[index], variant), nil
}
