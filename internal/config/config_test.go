package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://health.data.ny.gov/resource/xdss-u53e.json", cfg.DataURL)
	assert.Equal(t, "xdss-u53e.json", cfg.DataCacheFile)
	assert.Equal(t, "us-counties.geojson", cfg.GeoCacheFile)
	assert.Equal(t, "36", cfg.StateFIPS)
	assert.Equal(t, "New York", cfg.StateName)
	assert.Equal(t, "covid-map.html", cfg.OutputFile)
	assert.Empty(t, cfg.DescriptionFile)
	assert.Equal(t, "New York Covid-19 Data", cfg.PageTitle)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Second, cfg.PlayInterval)
	assert.False(t, cfg.StrictValidation)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_URL", "http://localhost:9999/records.json")
	t.Setenv("DATA_CACHE_FILE", "cache/records.json")
	t.Setenv("GEO_URL", "http://localhost:9999/counties.geojson")
	t.Setenv("STATE_FIPS", "06")
	t.Setenv("STATE_NAME", "California")
	t.Setenv("OUTPUT_FILE", "out.html")
	t.Setenv("DESCRIPTION_FILE", "header.html")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("PLAY_INTERVAL", "250ms")
	t.Setenv("STRICT_VALIDATION", "true")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/records.json", cfg.DataURL)
	assert.Equal(t, "cache/records.json", cfg.DataCacheFile)
	assert.Equal(t, "06", cfg.StateFIPS)
	assert.Equal(t, "California", cfg.StateName)
	assert.Equal(t, "out.html", cfg.OutputFile)
	assert.Equal(t, "header.html", cfg.DescriptionFile)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.PlayInterval)
	assert.True(t, cfg.StrictValidation)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidDurations(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable fetch timeout", "FETCH_TIMEOUT", "soon"},
		{"zero play interval", "PLAY_INTERVAL", "0s"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
