package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/config"
	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/finalize"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/jobpost"
	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/taxonomy"
)

const serviceName = "cv-assistant"

// newLLMClient builds the provider client named by the config. Tests replace
// it with a scripted client.
var newLLMClient = func(ctx context.Context, cfg config.Config) (llm.Client, error) {
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required (set GEMINI_API_KEY or OPENAI_API_KEY for LLM_PROVIDER=%s)", cfg.LLMProvider)
	}

	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	llmCfg := llm.ConfigFor(provider)
	if provider == llm.ProviderOpenAI {
		llmCfg.BaseURL = cfg.OpenAIBaseURL
		if cfg.OpenAIModel != "" {
			llmCfg = llmCfg.WithModel(cfg.OpenAIModel, llm.TierLite, llm.TierStandard)
		}
	}
	return llm.NewClient(ctx, llmCfg, apiKey)
}

// services holds the domain services shared by the server and the CLI
type services struct {
	client    llm.Client
	rewriter  *rewriting.Rewriter
	extractor *extraction.Extractor
	analyzer  *gaps.Analyzer
	generator *questions.Generator
	scorer    *ats.Scorer
	finalizer *finalize.Finalizer
}

// buildServices wires every service to one client. metrics may be nil.
func buildServices(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*services, error) {
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	rewriteOpts := []rewriting.Option{rewriting.WithLogger(logger), rewriting.WithTimeout(cfg.LLMCallTimeout)}
	if metrics != nil {
		client = llm.Instrument(client, metrics)
		rewriteOpts = append(rewriteOpts, rewriting.WithObserver(metrics))
	}

	var tax *taxonomy.Provider
	if cfg.TaxonomyPath != "" {
		tax = taxonomy.NewProvider(cfg.TaxonomyPath)
	}

	return &services{
		client:    client,
		rewriter:  rewriting.NewRewriter(client, rewriteOpts...),
		extractor: extraction.NewExtractor(client, extraction.WithLogger(logger), extraction.WithTimeout(cfg.LLMCallTimeout)),
		analyzer: gaps.NewAnalyzer(client,
			gaps.WithTaxonomy(tax),
			gaps.WithLogger(logger),
			gaps.WithTimeout(cfg.LLMCallTimeout),
		),
		generator: questions.NewGenerator(client, questions.WithLogger(logger), questions.WithTimeout(cfg.LLMCallTimeout)),
		scorer:    ats.NewScorer(client, ats.WithLogger(logger), ats.WithTimeout(cfg.LLMCallTimeout)),
		// whole-CV replies are long; finalize keeps its own 30s default
		finalizer: finalize.NewFinalizer(client, finalize.WithLogger(logger)),
	}, nil
}

// jobDescription returns text, or the description fetched from jobURL when
// text is empty
func jobDescription(ctx context.Context, text, jobURL string) (string, error) {
	if text != "" || jobURL == "" {
		return text, nil
	}
	desc, err := jobpost.NewFetcher().Description(ctx, jobURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch job posting: %w", err)
	}
	return desc, nil
}

// loadConfig reads the environment and the optional --config file
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// cliLogger keeps CLI stdout clean for JSON output
func cliLogger(cfg config.Config) *slog.Logger {
	return observability.SetupLogger(os.Stderr, serviceName, cfg.AppEnv, cfg.LogLevel)
}

// readJSONFile decodes the JSON file at path into out
func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
