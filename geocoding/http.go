// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response ends up in a message.
const maxErrorBody = 512

// getJSON issues a GET request and decodes a 200 response into dst.
func getJSON(ctx context.Context, client *http.Client, provider, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", provider, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		geoErr := ClassifyTransportError(err)
		geoErr.Provider = provider

		return geoErr
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		geoErr := ClassifyHTTPError(resp.StatusCode, strings.ToValidUTF8(string(body), ""))
		geoErr.Provider = provider

		return geoErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &GeocodingError{
			Type:     ErrorTypeUnknown,
			Provider: provider,
			Message:  "decoding response",
			Err:      err,
		}
	}

	return nil
}
