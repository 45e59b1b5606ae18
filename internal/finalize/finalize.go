// Package finalize polishes or rewrites a whole CV in one model call,
// keeping only the facts the CV already contains.
package finalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/prompts"
	"github.com/jonathan/cv-assistant/internal/quality"
	"github.com/jonathan/cv-assistant/internal/retry"
	"github.com/jonathan/cv-assistant/internal/schemas"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	maxAttempts    = 2
	maxTokens      = 3000
	defaultTimeout = 30 * time.Second
	promptFile     = "finalize.json"
)

// Outcomes reported when no finalized CV was produced
var (
	ErrInvalidOutput  = errors.New("model returned no usable CV")
	ErrFinalizeFailed = errors.New("finalize failed")
)

// Mode selects how far the model may go
type Mode string

const (
	// ModePolish fixes language and consistency only
	ModePolish Mode = "polish"
	// ModeRewrite rewrites every section around the same facts
	ModeRewrite Mode = "rewrite"
)

func (m Mode) temperature() float32 {
	if m == ModeRewrite {
		return 0.3
	}
	return 0
}

// Request is the input of a finalize run. Locale defaults to en.
type Request struct {
	CV        *types.CV    `json:"cv" validate:"required"`
	Mode      Mode         `json:"mode" validate:"required,oneof=polish rewrite"`
	SectorID  string       `json:"sectorId,omitempty"`
	RoleID    string       `json:"roleId,omitempty"`
	Seniority string       `json:"seniority,omitempty"`
	Locale    types.Locale `json:"locale,omitempty" validate:"omitempty,oneof=tr en"`
}

// Result is the finalized CV with the model's notes on what it changed
type Result struct {
	CV    *types.CV `json:"cv"`
	Notes []string  `json:"notes"`
}

type target struct {
	SectorID  string `json:"sectorId,omitempty"`
	RoleID    string `json:"roleId,omitempty"`
	Seniority string `json:"seniority,omitempty"`
}

type reply struct {
	CV    json.RawMessage `json:"cv"`
	Notes []string        `json:"notes"`
}

// Finalizer runs finalize requests. It is safe for concurrent use.
type Finalizer struct {
	client  llm.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Finalizer
type Option func(*Finalizer)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(f *Finalizer) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(f *Finalizer) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFinalizer creates a Finalizer backed by client
func NewFinalizer(client llm.Client, opts ...Option) *Finalizer {
	f := &Finalizer{client: client, logger: slog.Default(), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize returns the polished or rewritten CV. A reply without a valid cv
// is retried once; failures wrap ErrInvalidOutput or, when the provider
// call itself failed, ErrFinalizeFailed.
func (f *Finalizer) Finalize(ctx context.Context, req Request) (*Result, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	if req.Locale == "" {
		req.Locale = types.LocaleEN
	}

	pair, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
	}

	opts := llm.GenerateOptions{
		Temperature: req.Mode.temperature(),
		MaxTokens:   maxTokens,
		Timeout:     f.timeout,
		Tier:        llm.TierAdvanced,
	}

	res, err := retry.Do(ctx, maxAttempts, func(ctx context.Context, at retry.Attempt) (*Result, error) {
		var out reply
		raw, err := llm.CallJSON(ctx, f.client, pair.System, pair.User, opts, validateResponse, &out)
		if err == nil {
			var res *Result
			if res, err = out.result(raw); err == nil {
				return res, nil
			}
		}
		level := slog.LevelDebug
		if at.Last() {
			level = slog.LevelWarn
		}
		f.logger.Log(ctx, level, "finalize attempt failed",
			slog.String("mode", string(req.Mode)),
			slog.Int("attempt", at.Number),
			slog.Any("error", err))
		return nil, err
	})
	if err != nil {
		var outErr *llm.OutputError
		if errors.As(err, &outErr) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
	}
	return res, nil
}

func validateResponse(doc []byte) error {
	return schemas.Validate(schemas.FinalizeResponse, doc)
}

func buildPrompt(req Request) (prompts.Pair, error) {
	cvJSON, err := json.MarshalIndent(req.CV, "", "  ")
	if err != nil {
		return prompts.Pair{}, fmt.Errorf("encode cv: %w", err)
	}
	targetJSON, err := json.Marshal(target{SectorID: req.SectorID, RoleID: req.RoleID, Seniority: req.Seniority})
	if err != nil {
		return prompts.Pair{}, fmt.Errorf("encode target: %w", err)
	}
	return prompts.RenderPair(promptFile, string(req.Mode), map[string]string{
		"Locale": string(req.Locale),
		"Target": string(targetJSON),
		"CV":     string(cvJSON),
	})
}

// result normalizes the returned CV and checks it against the CV schema
func (r reply) result(raw string) (*Result, error) {
	var cv types.CV
	if err := json.Unmarshal(r.CV, &cv); err != nil {
		return nil, &llm.OutputError{Raw: raw, Cause: err}
	}
	cv.Normalize()
	if cv.Links == nil {
		cv.Links = []types.Link{}
	}

	normalized, err := json.Marshal(&cv)
	if err != nil {
		return nil, &llm.OutputError{Raw: raw, Cause: err}
	}
	if err := schemas.Validate(schemas.CV, normalized); err != nil {
		return nil, &llm.OutputError{Raw: raw, Cause: err}
	}

	notes := make([]string, 0, len(r.Notes))
	for _, n := range r.Notes {
		if n = quality.Trim(n); n != "" {
			notes = append(notes, n)
		}
	}
	return &Result{CV: &cv, Notes: notes}, nil
}
