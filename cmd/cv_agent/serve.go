package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/config"
	"github.com/jonathan/cv-assistant/internal/followup"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/pipeline"
	"github.com/jonathan/cv-assistant/internal/server"
	"github.com/jonathan/cv-assistant/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the rewrite, extraction, gap, question, scoring, pipeline and session endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.SetupLogger(os.Stdout, serviceName, cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(logger)

	srv, err := newServer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	return srv.Start()
}

// newServer wires the metrics registry, the services and the session store
// behind the HTTP server
func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*server.Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	svc, err := buildServices(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	store, err := session.Open(ctx, session.Options{
		Backend:     cfg.SessionBackend,
		Dir:         cfg.SessionDir,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		TTL:         cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s session store: %w", cfg.SessionBackend, err)
	}

	srv, err := server.New(server.Config{
		Port:            cfg.Port,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Rewriter:        svc.rewriter,
		Extractor:       svc.extractor,
		Analyzer:        svc.analyzer,
		Generator:       svc.generator,
		Scorer:          svc.scorer,
		Finalizer:       svc.finalizer,
		Pipeline: &pipeline.Pipeline{
			Extractor: svc.extractor,
			Analyzer:  svc.analyzer,
			Generator: svc.generator,
			Scorer:    svc.scorer,
			Rewriter:  svc.rewriter,
			Logger:    logger,
		},
		Followup: followup.NewService(store, svc.analyzer, svc.generator, logger),
		Sessions: store,
		Metrics:  metrics,
		Gatherer: reg,
		Logger:   logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("server configured",
		slog.String("llm_provider", cfg.LLMProvider),
		slog.String("session_backend", cfg.SessionBackend),
		slog.Int("rate_limit_per_min", cfg.RateLimitPerMin),
		slog.Bool("taxonomy", cfg.TaxonomyPath != ""),
	)
	return srv, nil
}
