// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP client plumbing shared by the geocoding
// adapters: request tracing and default headers.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 10 * time.Second

// sensitiveParams are query parameters never written to a trace.
var sensitiveParams = []string{"key", "api_key", "apikey"}

// LoggingRoundTripper writes a compact dump of every request and response.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// abbreviate prefixes and truncates dump lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = fmt.Sprintf("%c %s", prefix, line)
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = line
	}

	return lines
}

// RedactURL returns u as a string with credentials in the query replaced.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	redacted := false

	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")

			redacted = true
		}
	}

	if !redacted {
		return u.String()
	}

	c := *u
	c.RawQuery = q.Encode()

	return c.String()
}

func (t *LoggingRoundTripper) transport() http.RoundTripper {
	if t.Transport == nil {
		return http.DefaultTransport
	}

	return t.Transport
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	out := req
	if redacted := RedactURL(req.URL); redacted != req.URL.String() {
		u, err := url.Parse(redacted)
		if err != nil {
			return fmt.Errorf("tracing HTTP request: %w", err)
		}

		out = req.Clone(req.Context())
		out.URL = u
	}

	// bodies are left unread
	dump, err := httputil.DumpRequestOut(out, false)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	_, err = fmt.Fprintln(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration); err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')
	_, err = fmt.Fprintln(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.transport().RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.transport().RoundTrip(req)
	if err != nil {
		fmt.Fprintf(t.Writer, "< ERROR: [%v] %v\n", time.Since(start), err)

		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// DefaultHeadersRoundTripper sets headers the caller did not set itself.
type DefaultHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *DefaultHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) > 0 {
		req = req.Clone(req.Context())

		for k, v := range t.Headers {
			if req.Header.Get(k) == "" {
				req.Header.Set(k, v)
			}
		}
	}

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return transport.RoundTrip(req)
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	// Trace receives request and response dumps when not nil.
	Trace     io.Writer
	TraceBody bool
	Transport http.RoundTripper
}

// NewClient builds an HTTP client with the configured headers and tracing.
func NewClient(opts ClientOptions) *http.Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if opts.Trace != nil {
		transport = &LoggingRoundTripper{
			Transport: transport,
			Writer:    opts.Trace,
			DumpBody:  opts.TraceBody,
		}
	}

	if opts.UserAgent != "" {
		transport = &DefaultHeadersRoundTripper{
			Transport: transport,
			Headers:   map[string]string{"User-Agent": opts.UserAgent},
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
