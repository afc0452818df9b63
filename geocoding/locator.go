// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/jcodagnone/itur/address"
	"github.com/jcodagnone/itur/spatial"
)

// Step identifies the strategy step that issued a query.
type Step int

const (
	// StepNone means no query was issued.
	StepNone Step = iota
	// StepPlace geocodes a single token such as a city or landmark.
	StepPlace
	// StepCityOnly geocodes the city of a "<number>, <city>" address.
	StepCityOnly
	// StepStreetNumber geocodes "<street number>, <city>".
	StepStreetNumber
	// StepStreetStart asks for a street's geometry and keeps its first vertex.
	StepStreetStart
	// StepFreeText geocodes the whole input as typed.
	StepFreeText
)

var stepNames = [...]string{"none", "place", "city_only", "street_number", "street_start", "free_text"}

func (s Step) String() string {
	if s >= 0 && int(s) < len(stepNames) {
		return stepNames[s]
	}

	return fmt.Sprintf("Step(%d)", int(s))
}

// Result is the outcome of locating one address.
//
// Point is nil when nothing was found. Err is set only in that case, and only
// when at least one provider call failed; a clean miss has a nil Err.
type Result struct {
	Point *spatial.Point
	Label string
	Step  Step
	Err   error
}

// Found reports whether a point was found.
func (r Result) Found() bool {
	return r.Point != nil
}

// Locator resolves one address through a fixed sequence of provider queries.
type Locator struct {
	provider      Provider
	trimCountries []string
}

// NewLocator returns a Locator over p. Labels ending in ", <country>" for any
// of trimCountries lose that suffix.
func NewLocator(p Provider, trimCountries []string) *Locator {
	return &Locator{provider: p, trimCountries: trimCountries}
}

type attempt struct {
	step       Step
	query      string
	structured *StructuredQuery
}

func (a attempt) String() string {
	if a.structured != nil {
		return a.step.String() + " " + a.structured.String()
	}

	return fmt.Sprintf("%s %q", a.step, a.query)
}

var (
	allDigits = regexp.MustCompile(`^\d+$`)
	anyDigit  = regexp.MustCompile(`\d`)
)

// plan picks the first query for the comma separated parts of an address.
func plan(parts []string) attempt {
	if len(parts) == 1 {
		return attempt{step: StepPlace, query: parts[0]}
	}

	city, prev := parts[len(parts)-1], parts[len(parts)-2]

	switch {
	case len(parts) == 2 && allDigits.MatchString(prev):
		return attempt{step: StepCityOnly, query: city}
	case anyDigit.MatchString(prev):
		return attempt{step: StepStreetNumber, query: prev + ", " + city}
	default:
		return attempt{
			step:       StepStreetStart,
			structured: &StructuredQuery{Street: prev, City: city, Geometry: true},
		}
	}
}

// Locate resolves addr. Provider failures, including panics, never escape:
// they count as a miss for the step that raised them.
//
// The first step depends on the shape of the address:
//
//	"Haifa"                   one part          -> place
//	"12, Haifa"               number and city   -> city only
//	"Herzl 12, Haifa"         street has digits -> street with number
//	"Herzl, Haifa"            anything else     -> structured street, first vertex
//
// When that step finds nothing the full text is tried once as free text,
// unless it is the query that was just sent.
func (l *Locator) Locate(ctx context.Context, addr string) Result {
	text := strings.TrimSpace(addr)
	if text == "" {
		return Result{}
	}

	parts := address.Tokens(text)
	if len(parts) == 0 {
		return Result{}
	}

	attempts := []attempt{plan(parts)}
	if first := attempts[0]; first.structured != nil || first.query != text {
		attempts = append(attempts, attempt{step: StepFreeText, query: text})
	}

	var lastErr error

	for _, a := range attempts {
		res, err := l.try(ctx, a)
		recordStep(a.step, res.Found(), err)

		if res.Found() {
			return res
		}

		if err != nil {
			lastErr = fmt.Errorf("%s: %w", a.step, err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	return Result{Step: attempts[len(attempts)-1].step, Err: lastErr}
}

func (l *Locator) try(ctx context.Context, a attempt) (Result, error) {
	candidates, err := l.call(ctx, a)
	if err != nil {
		return Result{Step: a.step}, err
	}

	if len(candidates) == 0 {
		return Result{Step: a.step}, nil
	}

	c := candidates[0]
	p := c.Point

	if a.step == StepStreetStart {
		if v, ok := c.Geometry.FirstVertex(); ok {
			p = v
		}
	}

	if err := p.Validate(); err != nil {
		return Result{Step: a.step}, fmt.Errorf("provider returned an invalid point: %w", err)
	}

	return Result{Point: &p, Label: l.trimLabel(c.Label), Step: a.step}, nil
}

func (l *Locator) call(ctx context.Context, a attempt) (candidates []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ geocoding provider panicked on %s: %v", a, r)

			candidates, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()

	if a.structured != nil {
		return l.provider.GeocodeStructured(ctx, *a.structured)
	}

	return l.provider.Geocode(ctx, a.query)
}

func (l *Locator) trimLabel(label string) string {
	for _, country := range l.trimCountries {
		if s, ok := strings.CutSuffix(label, ", "+country); ok {
			return s
		}
	}

	return label
}
