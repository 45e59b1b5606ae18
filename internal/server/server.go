package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/finalize"
	"github.com/jonathan/cv-assistant/internal/followup"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/pipeline"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/session"
)

const defaultShutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger

	rewriter  *rewriting.Rewriter
	extractor *extraction.Extractor
	analyzer  *gaps.Analyzer
	generator *questions.Generator
	scorer    *ats.Scorer
	finalizer *finalize.Finalizer
	pipeline  *pipeline.Pipeline
	followup  *followup.Service
	sessions  session.Store
}

// Config holds server configuration and the services behind the routes
type Config struct {
	Port            int
	RateLimitPerMin int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	Rewriter  *rewriting.Rewriter
	Extractor *extraction.Extractor
	Analyzer  *gaps.Analyzer
	Generator *questions.Generator
	Scorer    *ats.Scorer
	Finalizer *finalize.Finalizer
	Pipeline  *pipeline.Pipeline
	Followup  *followup.Service
	Sessions  session.Store

	// Metrics is optional; Gatherer backs /metrics and defaults to the
	// global registry
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Rewriter == nil:
		return nil, fmt.Errorf("server: rewriter is required")
	case cfg.Extractor == nil, cfg.Analyzer == nil, cfg.Generator == nil, cfg.Scorer == nil, cfg.Finalizer == nil:
		return nil, fmt.Errorf("server: extraction, gap, question, scoring and finalize services are required")
	case cfg.Sessions == nil:
		return nil, fmt.Errorf("server: session store is required")
	}

	s := &Server{
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          cfg.Logger,
		rewriter:        cfg.Rewriter,
		extractor:       cfg.Extractor,
		analyzer:        cfg.Analyzer,
		generator:       cfg.Generator,
		scorer:          cfg.Scorer,
		finalizer:       cfg.Finalizer,
		pipeline:        cfg.Pipeline,
		followup:        cfg.Followup,
		sessions:        cfg.Sessions,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	if s.pipeline == nil {
		s.pipeline = &pipeline.Pipeline{
			Extractor: cfg.Extractor,
			Analyzer:  cfg.Analyzer,
			Generator: cfg.Generator,
			Scorer:    cfg.Scorer,
			Rewriter:  cfg.Rewriter,
			Logger:    s.logger,
		}
	}
	if s.followup == nil {
		s.followup = followup.NewService(cfg.Sessions, cfg.Analyzer, cfg.Generator, s.logger)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // pipeline runs make several model calls
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestID)
	r.Use(s.accessLog)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.HTTPMiddleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		// Every route that reaches the model is rate limited per client IP
		api.Group(func(llmRoutes chi.Router) {
			if cfg.RateLimitPerMin > 0 {
				llmRoutes.Use(httprate.Limit(
					cfg.RateLimitPerMin,
					time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(s.handleRateLimited),
				))
			}
			llmRoutes.Post("/rewrite/bullet", s.handleRewriteBullet)
			llmRoutes.Post("/rewrite/bullets", s.handleRewriteBullets)
			llmRoutes.Post("/extract", s.handleExtract)
			llmRoutes.Post("/gaps", s.handleGaps)
			llmRoutes.Post("/questions/next", s.handleNextQuestions)
			llmRoutes.Post("/score", s.handleScore)
			llmRoutes.Post("/finalize", s.handleFinalize)
			llmRoutes.Post("/pipeline", s.handlePipeline)
			llmRoutes.Post("/pipeline/stream", s.handlePipelineStream)
			llmRoutes.Post("/followup/start", s.handleFollowupStart)
			llmRoutes.Post("/followup/answer", s.handleFollowupAnswer)
		})

		api.Post("/rewrite/diff", s.handleDiff)
		api.Post("/sessions", s.handleCreateSession)
		api.Get("/sessions/{id}", s.handleGetSession)
		api.Put("/sessions/{id}", s.handlePutSession)
	})

	return r
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.sessions.Close(); err != nil {
		s.logger.Warn("closing session store", slog.Any("error", err))
	}
	s.logger.Info("server stopped")
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusTooManyRequests, msgTooManyRequests)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}

// failure maps err to its status and body and logs anything unexpected
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	lg := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		lg.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	} else {
		lg.InfoContext(r.Context(), "request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	s.jsonResponse(w, status, body)
}
