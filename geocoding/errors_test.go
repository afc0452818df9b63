// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "rate limit error type",
			err:  &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit reached"},
			want: true,
		},
		{
			name: "wrapped rate limit error",
			err:  fmt.Errorf("step c: %w", &GeocodingError{Type: ErrorTypeRateLimit}),
			want: true,
		},
		{
			name: "error message contains too many requests",
			err:  errors.New("too many requests"),
			want: true,
		},
		{
			name: "error message contains 429",
			err:  errors.New("nominatim returned status 429"),
			want: true,
		},
		{
			name: "other error type mentioning 429",
			err:  &GeocodingError{Type: ErrorTypeNotFound, Message: "no match for 429 Main St"},
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "quota exceeded error type",
			err:  &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded"},
			want: true,
		},
		{
			name: "error message contains over_query_limit",
			err:  errors.New("google maps status: OVER_QUERY_LIMIT"),
			want: true,
		},
		{
			name: "error message contains over_daily_limit",
			err:  errors.New("google maps status: OVER_DAILY_LIMIT"),
			want: true,
		},
		{
			name: "other error type",
			err:  &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit"},
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "timeout error type",
			err:  &GeocodingError{Type: ErrorTypeTimeout, Message: "timeout"},
			want: true,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("waiting: %w", context.DeadlineExceeded),
			want: true,
		},
		{
			name: "error message contains timeout",
			err:  errors.New("request timeout after 10 seconds"),
			want: true,
		},
		{
			name: "other error type",
			err:  &GeocodingError{Type: ErrorTypeNotFound, Message: "not found"},
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsTimeoutError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		statusCode int
		wantType   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusGatewayTimeout, ErrorTypeNetworkError},
		{http.StatusInternalServerError, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			got := ClassifyHTTPError(tt.statusCode, "")
			assert.Equal(t, tt.wantType, got.Type)
		})
	}
}

func TestClassifyHTTPErrorKeepsBody(t *testing.T) {
	got := ClassifyHTTPError(http.StatusBadRequest, " missing q \n")
	assert.Equal(t, "invalid request: missing q", got.Error())
}

func TestClassifyTransportError(t *testing.T) {
	got := ClassifyTransportError(fmt.Errorf("Get: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTimeout, got.Type)
	assert.True(t, IsTimeoutError(got))

	got = ClassifyTransportError(errors.New("connection refused"))
	assert.Equal(t, ErrorTypeNetworkError, got.Type)
}

func TestGeocodingErrorMessage(t *testing.T) {
	innerErr := errors.New("inner error")
	geoErr := &GeocodingError{
		Type:     ErrorTypeInvalidRequest,
		Provider: "google",
		Message:  "INVALID_REQUEST",
		Err:      innerErr,
	}

	assert.Equal(t, "google: INVALID_REQUEST: inner error", geoErr.Error())
	assert.ErrorIs(t, geoErr, innerErr)
	assert.Equal(t, "invalid_request", geoErr.Type.String())
}
