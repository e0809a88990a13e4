package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Defaults point at the live NY State Department of Health dataset and the
// public US counties GeoJSON used for boundaries.
const (
	defaultDataURL = "https://health.data.ny.gov/resource/xdss-u53e.json"
	defaultGeoURL  = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"
)

// Config holds all tool settings, populated from environment variables.
type Config struct {
	DataURL       string
	DataCacheFile string
	GeoURL        string
	GeoCacheFile  string

	StateFIPS string
	StateName string

	OutputFile      string
	DescriptionFile string // optional override of the embedded header fragment
	PageTitle       string

	FetchTimeout time.Duration
	PlayInterval time.Duration

	StrictValidation bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	playInterval, err := envDuration("PLAY_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataURL:       envOrDefault("DATA_URL", defaultDataURL),
		DataCacheFile: envOrDefault("DATA_CACHE_FILE", "xdss-u53e.json"),
		GeoURL:        envOrDefault("GEO_URL", defaultGeoURL),
		GeoCacheFile:  envOrDefault("GEO_CACHE_FILE", "us-counties.geojson"),

		StateFIPS: envOrDefault("STATE_FIPS", "36"),
		StateName: envOrDefault("STATE_NAME", "New York"),

		OutputFile:      envOrDefault("OUTPUT_FILE", "covid-map.html"),
		DescriptionFile: os.Getenv("DESCRIPTION_FILE"),
		PageTitle:       envOrDefault("PAGE_TITLE", "New York Covid-19 Data"),

		FetchTimeout: fetchTimeout,
		PlayInterval: playInterval,

		StrictValidation: os.Getenv("STRICT_VALIDATION") == "true",

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DataURL == "" {
		return nil, errors.New("DATA_URL is required")
	}
	if cfg.GeoURL == "" {
		return nil, errors.New("GEO_URL is required")
	}
	if cfg.StateFIPS == "" {
		return nil, errors.New("STATE_FIPS is required")
	}
	if cfg.OutputFile == "" {
		return nil, errors.New("OUTPUT_FILE is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
