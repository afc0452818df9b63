// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRoundTripper answers every request with a canned body and keeps
// the last request it saw.
type recordingRoundTripper struct {
	lastRequest *http.Request
	body        string
}

func (d *recordingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &recordingRoundTripper{body: "response body"},
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/search?q=Tel+Aviv&key=secret", nil)
	require.NoError(t, err)

	_, err = lt.RoundTrip(req)
	require.NoError(t, err)

	logContent := logBuffer.String()
	assert.Contains(t, logContent, "> GET /search?")
	assert.Contains(t, logContent, "key=REDACTED")
	assert.NotContains(t, logContent, "secret")
	assert.Contains(t, logContent, "< RESPONSE: [")
	assert.Contains(t, logContent, "response body")

	// the outgoing request keeps its real credentials
	assert.Equal(t, "secret", req.URL.Query().Get("key"))
}

func TestLoggingRoundTripperWithoutWriter(t *testing.T) {
	rt := &recordingRoundTripper{}
	lt := &LoggingRoundTripper{Transport: rt}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, err := lt.RoundTrip(req)
	require.NoError(t, err)
	assert.Same(t, req, rt.lastRequest)
}

func TestRedactURL(t *testing.T) {
	u, err := url.Parse("https://maps.example.com/geocode/json?address=Herzl&key=abc")
	require.NoError(t, err)

	assert.Equal(t, "https://maps.example.com/geocode/json?address=Herzl&key=REDACTED", RedactURL(u))

	u, err = url.Parse("https://nominatim.example.com/search?q=Haifa")
	require.NoError(t, err)
	assert.Equal(t, "https://nominatim.example.com/search?q=Haifa", RedactURL(u))
	assert.Empty(t, RedactURL(nil))
}

func TestDefaultHeadersRoundTripper(t *testing.T) {
	rt := &recordingRoundTripper{}
	dh := &DefaultHeadersRoundTripper{
		Transport: rt,
		Headers:   map[string]string{"User-Agent": "itur-geocoder", "X-Test-Header": "TestValue"},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-Header", "caller")

	_, err = dh.RoundTrip(req)
	require.NoError(t, err)
	require.NotNil(t, rt.lastRequest)

	assert.Equal(t, "itur-geocoder", rt.lastRequest.Header.Get("User-Agent"))
	assert.Equal(t, "caller", rt.lastRequest.Header.Get("X-Test-Header"))
	assert.Empty(t, req.Header.Get("User-Agent"), "the caller's request must not be mutated")
}

func TestNewClient(t *testing.T) {
	var gotAgent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var trace bytes.Buffer

	client := NewClient(ClientOptions{UserAgent: "itur-test/1.0", Trace: &trace})
	assert.Equal(t, DefaultTimeout, client.Timeout)

	resp, err := client.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "itur-test/1.0", gotAgent)
	assert.Contains(t, trace.String(), "> GET /ping")
	assert.Contains(t, trace.String(), "User-Agent: itur-test/1.0")
}
