// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/itur/spatial"
	"github.com/jcodagnone/itur/utils/httputils"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, q url.Values)) (*httptest.Server, *[]url.Values) {
	t.Helper()

	var seen []url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		handler(w, r.URL.Query())
	}))
	t.Cleanup(srv.Close)

	return srv, &seen
}

func TestGoogleMapsGeocode(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"formatted_address": "דרך מנחם בגין 132, תל אביב-יפו, ישראל",
					"geometry": {"location": {"lat": 32.0745, "lng": 34.7921}, "location_type": "ROOFTOP"}
				}
			]
		}`))
	})

	g := NewGoogleMapsGeocoder(GoogleMapsConfig{APIKey: "secret", Language: "iw", Region: "il", BaseURL: srv.URL})

	got, err := g.Geocode(context.Background(), "דרך מנחם בגין 132, תל אביב")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, spatial.Point{Lat: 32.0745, Lng: 34.7921}, got[0].Point)
	assert.Equal(t, "דרך מנחם בגין 132, תל אביב-יפו, ישראל", got[0].Label)
	assert.Nil(t, got[0].Geometry)

	q := (*seen)[0]
	assert.Equal(t, "דרך מנחם בגין 132, תל אביב", q.Get("address"))
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "iw", q.Get("language"))
	assert.Equal(t, "il", q.Get("region"))
}

func TestGoogleMapsGeocodeStructured(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	g := NewGoogleMapsGeocoder(GoogleMapsConfig{APIKey: "k", BaseURL: srv.URL})

	got, err := g.GeocodeStructured(context.Background(), StructuredQuery{Street: "Herzl", City: "Haifa", Geometry: true})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	q := (*seen)[0]
	assert.Equal(t, "Herzl, Haifa", q.Get("address"))
	assert.Equal(t, "locality:Haifa|route:Herzl", q.Get("components"))
	assert.False(t, q.Has("language"))
}

func TestGoogleMapsStatusErrors(t *testing.T) {
	tests := []struct {
		status   string
		wantType ErrorType
	}{
		{"OVER_QUERY_LIMIT", ErrorTypeRateLimit},
		{"OVER_DAILY_LIMIT", ErrorTypeQuotaExceeded},
		{"REQUEST_DENIED", ErrorTypeAuth},
		{"INVALID_REQUEST", ErrorTypeInvalidRequest},
		{"UNKNOWN_ERROR", ErrorTypeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, _ url.Values) {
				w.Write([]byte(`{"status": "` + tt.status + `", "error_message": "nope"}`))
			})

			g := NewGoogleMapsGeocoder(GoogleMapsConfig{APIKey: "k", BaseURL: srv.URL})

			_, err := g.Geocode(context.Background(), "Haifa")

			var geoErr *GeocodingError
			require.ErrorAs(t, err, &geoErr)
			assert.Equal(t, tt.wantType, geoErr.Type)
			assert.Equal(t, ProviderGoogle, geoErr.Provider)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestGoogleMapsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGoogleMapsGeocoder(GoogleMapsConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := g.Geocode(context.Background(), "Haifa")
	assert.True(t, IsRateLimitError(err))
	assert.ErrorContains(t, err, "slow down")
}

func TestNominatimGeocode(t *testing.T) {
	var agent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		q := r.URL.Query()
		assert.Equal(t, "Haifa", q.Get("q"))
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		assert.Equal(t, "he", q.Get("accept-language"))
		assert.False(t, q.Has("polygon_geojson"))
		w.Write([]byte(`[{"lat": "32.8191218", "lon": "34.9983856", "display_name": "Haifa, Israel"}]`))
	}))
	defer srv.Close()

	n := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL, Language: "he"})

	got, err := n.Geocode(context.Background(), "Haifa")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, spatial.Point{Lat: 32.8191218, Lng: 34.9983856}, got[0].Point)
	assert.Equal(t, "Haifa, Israel", got[0].Label)
	assert.Equal(t, DefaultUserAgent, agent)
}

func TestNominatimGeocodeStructured(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Write([]byte(`[{
			"lat": "32.06", "lon": "34.77", "display_name": "Herzl",
			"geojson": {"type": "LineString", "coordinates": [[34.7701, 32.0581], [34.7733, 32.0690]]}
		}]`))
	})

	n := NewNominatimGeocoder(NominatimConfig{
		BaseURL:      srv.URL,
		CountryCodes: "il",
		HTTPClient:   httputils.NewClient(httputils.ClientOptions{UserAgent: "itur-test"}),
	})

	got, err := n.GeocodeStructured(context.Background(), StructuredQuery{Street: "Herzl", City: "Tel Aviv", Geometry: true})
	require.NoError(t, err)
	require.Len(t, got, 1)

	v, ok := got[0].Geometry.FirstVertex()
	require.True(t, ok)
	assert.Equal(t, spatial.Point{Lat: 32.0581, Lng: 34.7701}, v)

	q := (*seen)[0]
	assert.Equal(t, "Herzl", q.Get("street"))
	assert.Equal(t, "Tel Aviv", q.Get("city"))
	assert.Equal(t, "1", q.Get("polygon_geojson"))
	assert.Equal(t, "il", q.Get("countrycodes"))
	assert.False(t, q.Has("q"))
}

func TestNominatimBadCoordinates(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Write([]byte(`[{"lat": "north", "lon": "34.77"}]`))
	})

	_, err := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL}).Geocode(context.Background(), "x")
	assert.ErrorContains(t, err, "latitude")
}

func TestAdapterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	n := NewNominatimGeocoder(NominatimConfig{
		BaseURL:    srv.URL,
		HTTPClient: httputils.NewClient(httputils.ClientOptions{Timeout: 50 * time.Millisecond}),
	})

	_, err := n.Geocode(context.Background(), "Haifa")
	assert.True(t, IsTimeoutError(err), "got %v", err)
}
