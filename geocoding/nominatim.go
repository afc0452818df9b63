// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jcodagnone/itur/spatial"
	"github.com/jcodagnone/itur/utils/httputils"
)

const (
	// NominatimURL is the public OpenStreetMap search endpoint.
	NominatimURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies us to Nominatim, which rejects anonymous clients.
	DefaultUserAgent = "itur-geocoder"
	// ProviderNominatim names the OpenStreetMap Nominatim provider.
	ProviderNominatim = "nominatim"
)

// NominatimConfig configures a NominatimGeocoder.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// Language is sent as accept-language.
	Language string
	// CountryCodes restricts results, e.g. "il".
	CountryCodes string
	HTTPClient   *http.Client
}

// NominatimGeocoder queries an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	baseURL      string
	language     string
	countryCodes string
	httpClient   *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder. When cfg.HTTPClient
// is nil a client sending cfg.UserAgent is built.
func NewNominatimGeocoder(cfg NominatimConfig) *NominatimGeocoder {
	n := &NominatimGeocoder{
		baseURL:      cfg.BaseURL,
		language:     cfg.Language,
		countryCodes: cfg.CountryCodes,
		httpClient:   cfg.HTTPClient,
	}

	if n.baseURL == "" {
		n.baseURL = NominatimURL
	}

	if n.httpClient == nil {
		ua := cfg.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}

		n.httpClient = httputils.NewClient(httputils.ClientOptions{UserAgent: ua})
	}

	return n
}

type nominatimResult struct {
	Lat         string    `json:"lat"`
	Lon         string    `json:"lon"`
	DisplayName string    `json:"display_name"`
	GeoJSON     *Geometry `json:"geojson,omitempty"`
}

// Geocode resolves a free-text address.
func (n *NominatimGeocoder) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)

	return n.search(ctx, params)
}

// GeocodeStructured resolves a street within a city, with its GeoJSON shape
// when q.Geometry is set.
func (n *NominatimGeocoder) GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error) {
	params := url.Values{}
	if q.Street != "" {
		params.Set("street", q.Street)
	}

	if q.City != "" {
		params.Set("city", q.City)
	}

	if q.Geometry {
		params.Set("polygon_geojson", "1")
	}

	return n.search(ctx, params)
}

func (n *NominatimGeocoder) search(ctx context.Context, params url.Values) ([]Candidate, error) {
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	if n.language != "" {
		params.Set("accept-language", n.language)
	}

	if n.countryCodes != "" {
		params.Set("countrycodes", n.countryCodes)
	}

	var results []nominatimResult
	if err := getJSON(ctx, n.httpClient, ProviderNominatim, n.baseURL+"?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))

	for _, r := range results {
		p, err := parseLatLon(r.Lat, r.Lon)
		if err != nil {
			return nil, &GeocodingError{
				Type:     ErrorTypeUnknown,
				Provider: ProviderNominatim,
				Message:  "decoding coordinates",
				Err:      err,
			}
		}

		candidates = append(candidates, Candidate{
			Point:    p,
			Label:    r.DisplayName,
			Geometry: r.GeoJSON,
		})
	}

	return candidates, nil
}

func parseLatLon(lat, lon string) (spatial.Point, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("latitude %q: %w", lat, err)
	}

	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("longitude %q: %w", lon, err)
	}

	p := spatial.Point{Lat: la, Lng: lo}

	return p, p.Validate()
}
