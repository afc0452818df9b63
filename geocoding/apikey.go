// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

const (
	// APIKeyEnv holds the Google Maps API key.
	APIKeyEnv = "GOOGLE_MAPS_API_KEY"
	// ProjectEnv names the Cloud project searched for a key when the
	// credentials carry none.
	ProjectEnv = "GOOGLE_CLOUD_PROJECT"
	// APIKeyDisplayName is the display name of the key looked up through ADC.
	APIKeyDisplayName = "Itur Geocoding Key"
)

// ErrMissingAPIKey is returned when no Google Maps API key can be found.
var ErrMissingAPIKey = errors.New("google maps API key is not set")

// ResolveAPIKey returns explicit when set, then $GOOGLE_MAPS_API_KEY, then a
// key named APIKeyDisplayName fetched with Application Default Credentials.
func ResolveAPIKey(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		return key, nil
	}

	log.Printf("%s is not set. Attempting to retrieve via ADC...", APIKeyEnv)

	key, err := apiKeyFromADC(ctx, APIKeyDisplayName)
	if err != nil {
		return "", fmt.Errorf("%w: ADC lookup failed: %w", ErrMissingAPIKey, err)
	}

	log.Println("✅ Retrieved Google Maps API key via ADC")

	return key, nil
}

func apiKeyFromADC(ctx context.Context, displayName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		// user credentials without a quota project
		projectID = os.Getenv(ProjectEnv)
	}

	if projectID == "" {
		return "", fmt.Errorf("no project in default credentials and %s is not set", ProjectEnv)
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key %q has an empty key string", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("no API key named %q in project %s", displayName, projectID)
}
