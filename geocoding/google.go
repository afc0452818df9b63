// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/itur/spatial"
	"github.com/jcodagnone/itur/utils/httputils"
)

// GoogleMapsURL is the Geocoding API endpoint.
const GoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ProviderGoogle names the Google Maps provider.
const ProviderGoogle = "google"

// GoogleMapsConfig configures a GoogleMapsGeocoder.
type GoogleMapsConfig struct {
	APIKey string
	// Language of the returned labels, e.g. "iw".
	Language string
	// Region biases results to a ccTLD, e.g. "il".
	Region     string
	BaseURL    string
	HTTPClient *http.Client
}

// GoogleMapsGeocoder uses the Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	language   string
	region     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(cfg GoogleMapsConfig) *GoogleMapsGeocoder {
	g := &GoogleMapsGeocoder{
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		region:     cfg.Region,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
	}

	if g.baseURL == "" {
		g.baseURL = GoogleMapsURL
	}

	if g.httpClient == nil {
		g.httpClient = httputils.NewClient(httputils.ClientOptions{})
	}

	return g
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a free-text address.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("address", query)

	return g.do(ctx, params)
}

// GeocodeStructured resolves a street restricted to a locality. The Geocoding
// API returns no street geometry, so q.Geometry is ignored.
func (g *GoogleMapsGeocoder) GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error) {
	params := url.Values{}
	params.Set("address", strings.TrimSpace(q.Street+", "+q.City))

	var components []string
	if q.City != "" {
		components = append(components, "locality:"+q.City)
	}

	if q.Street != "" {
		components = append(components, "route:"+q.Street)
	}

	if len(components) > 0 {
		params.Set("components", strings.Join(components, "|"))
	}

	return g.do(ctx, params)
}

func (g *GoogleMapsGeocoder) do(ctx context.Context, params url.Values) ([]Candidate, error) {
	params.Set("key", g.apiKey)

	if g.language != "" {
		params.Set("language", g.language)
	}

	if g.region != "" {
		params.Set("region", g.region)
	}

	var gmResp googleMapsResponse
	if err := getJSON(ctx, g.httpClient, ProviderGoogle, g.baseURL+"?"+params.Encode(), &gmResp); err != nil {
		return nil, err
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []Candidate{}, nil
	default:
		return nil, googleStatusError(gmResp.Status, gmResp.ErrorMessage)
	}

	candidates := make([]Candidate, 0, len(gmResp.Results))
	for _, r := range gmResp.Results {
		candidates = append(candidates, Candidate{
			Point: spatial.Point{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Label: r.FormattedAddress,
		})
	}

	return candidates, nil
}

func googleStatusError(status, message string) *GeocodingError {
	t := ErrorTypeUnknown

	switch status {
	case "OVER_QUERY_LIMIT":
		t = ErrorTypeRateLimit
	case "OVER_DAILY_LIMIT":
		t = ErrorTypeQuotaExceeded
	case "REQUEST_DENIED":
		t = ErrorTypeAuth
	case "INVALID_REQUEST":
		t = ErrorTypeInvalidRequest
	case "UNKNOWN_ERROR":
		t = ErrorTypeNetworkError
	}

	msg := "status " + status
	if message != "" {
		msg += ": " + message
	}

	return &GeocodingError{Type: t, Provider: ProviderGoogle, Message: msg}
}
