package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-county-map/internal/adapter/geo"
	"github.com/couchcryptid/covid-county-map/internal/adapter/health"
	"github.com/couchcryptid/covid-county-map/internal/adapter/httpserver"
	"github.com/couchcryptid/covid-county-map/internal/config"
	"github.com/couchcryptid/covid-county-map/internal/observability"
	"github.com/couchcryptid/covid-county-map/internal/pipeline"
	"github.com/couchcryptid/covid-county-map/internal/render"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covidmap",
	Short: "Generate a county-level Covid-19 choropleth page for one US state",
	Long: `covidmap ingests the NY State Department of Health county testing
dataset and a national county-boundary GeoJSON file, reshapes them into
per-date metric arrays aligned to a stable county order, and writes one
self-contained interactive HTML page.

Configuration comes from environment variables (DATA_URL, GEO_URL,
STATE_FIPS, OUTPUT_FILE, ...). Both inputs are cached to local files;
delete the cache files to force a refetch.`,
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one ingest-reshape-render cycle and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := observability.NewLogger(cfg)
		metrics := observability.NewMetrics()

		p, err := buildPipeline(cfg, logger, metrics)
		if err != nil {
			return err
		}
		return p.Run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Generate the page, then serve it with health and metrics endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := observability.NewLogger(cfg)
		metrics := observability.NewMetrics()

		p, err := buildPipeline(cfg, logger, metrics)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := p.Run(ctx); err != nil {
			return err
		}

		srv := httpserver.NewServer(cfg.HTTPAddr, cfg.OutputFile, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func buildPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, error) {
	records := health.NewClient(cfg.DataURL, cfg.DataCacheFile, cfg.FetchTimeout, logger, metrics)
	geography := geo.NewClient(cfg.GeoURL, cfg.GeoCacheFile, cfg.StateFIPS, cfg.FetchTimeout, logger, metrics)

	renderer, err := render.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Title:            cfg.PageTitle,
		StateName:        cfg.StateName,
		DescriptionFile:  cfg.DescriptionFile,
		OutputFile:       cfg.OutputFile,
		PlayInterval:     cfg.PlayInterval,
		StrictValidation: cfg.StrictValidation,
	}
	return pipeline.New(records, geography, renderer, opts, clockwork.NewRealClock(), logger, metrics), nil
}

func main() {
	rootCmd.AddCommand(generateCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
