// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/spatial"
	"github.com/jcodagnone/itur/tabular"
)

func TestParseCoordinate(t *testing.T) {
	v, err := parseCoordinate("32.0853, 34.7818")
	require.NoError(t, err)
	assert.Equal(t, spatial.Renderings{
		LatDDM: "32° 05.118' N",
		LonDDM: "034° 46.908' E",
		LatDMS: `32° 05' 07.08" N`,
		LonDMS: `034° 46' 54.48" E`,
	}, v)

	v, err = parseCoordinate(`034° 46' 54.48" W`)
	require.NoError(t, err)
	assert.InDelta(t, -34.7818, v.(map[string]float64)["degrees"], 1e-6)

	v, err = parseCoordinate("32° 05.118' S")
	require.NoError(t, err)
	assert.InDelta(t, -32.0853, v.(map[string]float64)["degrees"], 1e-6)

	_, err = parseCoordinate("91,0")
	assert.Error(t, err)

	_, err = parseCoordinate("Tel Aviv")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Haifa", truncate("Haifa", 5))
	assert.Equal(t, "תל א…", truncate("תל אביב", 5))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, loadEnv(""))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ITUR_TEST_VALUE=from-file\nITUR_TEST_KEPT=from-file\n"), 0o600))

	t.Setenv("ITUR_TEST_KEPT", "from-env")
	t.Setenv("ITUR_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("ITUR_TEST_VALUE"))

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ITUR_TEST_VALUE"))
	assert.Equal(t, "from-env", os.Getenv("ITUR_TEST_KEPT"))
}

func TestResolveOptions(t *testing.T) {
	t.Setenv(envProvider, geocoding.ProviderNominatim)
	t.Setenv(envLanguage, "en")

	opts := resolveOptions(debugLocateCmd, geocoding.DefaultOptions())
	assert.Equal(t, geocoding.ProviderNominatim, opts.Provider)
	assert.Equal(t, "en", opts.Language)
	assert.Contains(t, opts.UserAgent, geocoding.DefaultUserAgent)

	require.NoError(t, debugLocateCmd.Flags().Set("language", "he"))
	t.Cleanup(func() { debugLocateCmd.Flags().Lookup("language").Changed = false })

	opts = resolveOptions(debugLocateCmd, geocoding.Options{Language: "he"})
	assert.Equal(t, "he", opts.Language, "flags win over the environment")
}

func TestRunGeocode(t *testing.T) {
	t.Setenv(envProvider, "")
	t.Setenv(envLanguage, "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("q") == "Tel Aviv" {
			_, _ = w.Write([]byte(`[{"lat":"32.0853","lon":"34.7818","display_name":"Tel Aviv, Israel"}]`))

			return
		}

		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.csv"), filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("Address\nTel Aviv\nJerusalem\n"), 0o600))

	savedArgs, savedOpts := *geocodeArgs, geocodeOptions
	t.Cleanup(func() { *geocodeArgs, geocodeOptions = savedArgs, savedOpts })

	*geocodeArgs = geocodeFlags{In: in, Out: out, Column: "Address", Delimiter: "auto", Header: "auto", Status: true}
	geocodeOptions = geocoding.DefaultOptions()
	geocodeOptions.Provider = geocoding.ProviderNominatim
	geocodeOptions.BaseURL = srv.URL
	geocodeOptions.RateLimitDelay = 0

	geocodeCmd.SetContext(context.Background())
	require.NoError(t, runGeocode(geocodeCmd, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Address,lat,lon,lat_ddm,lon_ddm,lat_dms,lon_dms,status,found_address\n"+
			`Tel Aviv,32.0853,34.7818,32° 05.118' N,034° 46.908' E,"32° 05' 07.08"" N","034° 46' 54.48"" E",found,Tel Aviv`+"\n"+
			"Jerusalem,,,,,,,not_found,\n",
		string(data))
}

func TestRunGeocodeMissingColumn(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("Name\nTel Aviv\n"), 0o600))

	savedArgs := *geocodeArgs
	t.Cleanup(func() { *geocodeArgs = savedArgs })

	*geocodeArgs = geocodeFlags{In: in, Out: filepath.Join(dir, "out.csv"), Column: "Address", Delimiter: "auto", Header: "auto"}

	geocodeCmd.SetContext(context.Background())
	err := runGeocode(geocodeCmd, nil)
	require.ErrorIs(t, err, tabular.ErrColumnNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "out.csv"))
}

func TestGeocodeSeparatorDefaultsToComma(t *testing.T) {
	def := geocodeCmd.Flags().Lookup("sep").DefValue
	require.Equal(t, ",", def)

	delimiter, err := tabular.ParseDelimiter(def)
	require.NoError(t, err)

	table, err := tabular.Read(strings.NewReader("Address\nHerzl 12; Haifa\nJerusalem\n"), tabular.ReadOptions{
		AddressColumn: "Address",
		Delimiter:     delimiter,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Herzl 12; Haifa", "Jerusalem"}, table.Addresses())
	assert.Equal(t, ',', table.Delimiter)
}
