// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/language"

	"github.com/jcodagnone/itur/utils/httputils"
)

// DefaultTrimCountries are stripped from the end of provider labels.
var DefaultTrimCountries = []string{"Israel", "ישראל"}

// Options configures the provider chain built by NewProvider.
type Options struct {
	// Provider is ProviderGoogle or ProviderNominatim.
	Provider string
	// APIKey authenticates Google requests. See ResolveAPIKey.
	APIKey string
	// RateLimitDelay is the minimum spacing between provider calls.
	RateLimitDelay time.Duration
	// Language of returned labels, as a BCP 47 tag.
	Language string
	// Region biases results to a country.
	Region    string
	UserAgent string
	// BaseURL overrides the provider endpoint.
	BaseURL       string
	TrimCountries []string
	// CachePath is a DuckDB file remembering answers. Empty disables caching.
	CachePath string

	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
	// TraceWriter receives HTTP traces. Defaults to stderr.
	TraceWriter io.Writer
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		Provider:       ProviderGoogle,
		RateLimitDelay: DefaultRateLimitDelay,
		Language:       "iw",
		Region:         "il",
		UserAgent:      DefaultUserAgent,
		TrimCountries:  DefaultTrimCountries,
	}
}

// Validate checks o, reporting every problem at once.
func (o Options) Validate() error {
	var errs []error

	switch o.Provider {
	case ProviderGoogle:
		if o.APIKey == "" {
			errs = append(errs, ErrMissingAPIKey)
		}
	case ProviderNominatim:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", o.Provider, ProviderGoogle, ProviderNominatim))
	}

	if o.RateLimitDelay < 0 {
		errs = append(errs, fmt.Errorf("rate limit delay must not be negative (got %v)", o.RateLimitDelay))
	}

	if o.Language != "" {
		if _, err := language.Parse(o.Language); err != nil {
			errs = append(errs, fmt.Errorf("invalid language %q: %w", o.Language, err))
		}
	}

	if o.Region != "" {
		if _, err := language.ParseRegion(o.Region); err != nil {
			errs = append(errs, fmt.Errorf("invalid region %q: %w", o.Region, err))
		}
	}

	return errors.Join(errs...)
}

// CacheNamespace identifies answers that depend on these options.
func (o Options) CacheNamespace() string {
	return fmt.Sprintf("%s:%s:%s", o.Provider, o.Language, o.Region)
}

// Chain is a configured provider. Close releases the cache database.
type Chain struct {
	Provider

	db *sql.DB
}

// Close releases the resources held by the chain.
func (c *Chain) Close() error {
	if c.db == nil {
		return nil
	}

	return c.db.Close()
}

// DB returns the cache database, or nil when caching is disabled.
func (c *Chain) DB() *sql.DB {
	return c.db
}

// NewProvider builds the live provider described by opts, instrumented,
// rate limited and, when opts.CachePath is set, cached. Cache hits skip the
// rate limiter.
func NewProvider(ctx context.Context, opts Options) (*Chain, error) {
	if opts.Provider == ProviderGoogle && opts.APIKey == "" {
		key, err := ResolveAPIKey(ctx, "")
		if err != nil {
			return nil, err
		}

		opts.APIKey = key
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geocoding options: %w", err)
	}

	clientOpts := httputils.ClientOptions{UserAgent: opts.UserAgent}
	if opts.EnableHTTPTrace || opts.EnableHTTPBodyTrace {
		clientOpts.Trace = opts.TraceWriter
		if clientOpts.Trace == nil {
			clientOpts.Trace = os.Stderr
		}

		clientOpts.TraceBody = opts.EnableHTTPBodyTrace
	}

	client := httputils.NewClient(clientOpts)

	var live Provider

	switch opts.Provider {
	case ProviderGoogle:
		live = NewGoogleMapsGeocoder(GoogleMapsConfig{
			APIKey:     opts.APIKey,
			Language:   opts.Language,
			Region:     opts.Region,
			BaseURL:    opts.BaseURL,
			HTTPClient: client,
		})
	case ProviderNominatim:
		live = NewNominatimGeocoder(NominatimConfig{
			BaseURL:      opts.BaseURL,
			Language:     opts.Language,
			CountryCodes: opts.Region,
			HTTPClient:   client,
		})
	}

	chain := &Chain{Provider: RateLimited(Instrumented(opts.Provider, live), opts.RateLimitDelay)}

	if opts.CachePath == "" {
		return chain, nil
	}

	db, err := OpenCache(ctx, opts.CachePath)
	if err != nil {
		return nil, err
	}

	cached, err := NewCachedProvider(ctx, db, opts.CacheNamespace(), chain.Provider)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	chain.Provider = cached
	chain.db = db

	return chain, nil
}

// NewLocatorFromOptions builds a Locator over NewProvider(ctx, opts).
func NewLocatorFromOptions(ctx context.Context, opts Options) (*Locator, *Chain, error) {
	chain, err := NewProvider(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	return NewLocator(chain, opts.TrimCountries), chain, nil
}
