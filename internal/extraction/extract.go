// Package extraction turns raw CV text into the canonical CV model with the
// help of a language model.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/prompts"
	"github.com/jonathan/cv-assistant/internal/retry"
	"github.com/jonathan/cv-assistant/internal/schemas"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	maxAttempts = 2
	maxTokens   = 1200
)

// Request is the input of an extraction
type Request struct {
	RawText    string       `json:"rawText" validate:"required"`
	TargetRole string       `json:"targetRole,omitempty"`
	Locale     types.Locale `json:"locale,omitempty" validate:"omitempty,oneof=tr en"`
}

// Extractor runs extractions. It is safe for concurrent use.
type Extractor struct {
	client  llm.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExtractor creates an Extractor backed by client
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{client: client, logger: slog.Default(), timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the normalized CV described by req.RawText. Failures wrap
// ErrInvalidModelJSON, ErrInvalidCVSchema (as *SchemaError) or
// ErrExtractionFailed, according to the last attempt.
func (e *Extractor) Extract(ctx context.Context, req Request) (*types.CV, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	pair, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	opts := llm.GenerateOptions{
		JSONMode:    true,
		Temperature: 0.2,
		MaxTokens:   maxTokens,
		Timeout:     e.timeout,
		Tier:        llm.TierAdvanced,
	}

	return retry.Do(ctx, maxAttempts, func(ctx context.Context, at retry.Attempt) (*types.CV, error) {
		raw, err := llm.Call(ctx, e.client, pair.System, pair.User, opts)
		if err != nil {
			e.logger.DebugContext(ctx, "extraction call failed", slog.Int("attempt", at.Number), slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		cv, err := decodeCV(raw)
		if err != nil {
			e.logger.DebugContext(ctx, "extraction reply rejected", slog.Int("attempt", at.Number), slog.Any("error", err))
			return nil, err
		}
		return cv, nil
	})
}

func buildPrompt(req Request) (prompts.Pair, error) {
	pair, err := prompts.RenderPair("extraction.json", "extract-cv", map[string]string{
		"RawText": CleanText(req.RawText),
	})
	if err != nil {
		return prompts.Pair{}, err
	}
	if req.TargetRole != "" {
		pair.User += "\nTarget role: " + req.TargetRole
	}
	if req.Locale != "" {
		pair.User += "\nLocale: " + string(req.Locale)
	}
	return pair, nil
}

// decodeCV repairs the reply, decodes it, normalizes dates and links, and
// checks the normalized document against the CV schema
func decodeCV(raw string) (*types.CV, error) {
	body := []byte(llm.ForceJSONObject(raw))
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrInvalidModelJSON)
	}

	var cv types.CV
	if err := json.Unmarshal(body, &cv); err != nil {
		return nil, schemaError(schemas.Validate(schemas.CV, body), err)
	}
	cv.Normalize()
	if cv.Links == nil {
		cv.Links = []types.Link{}
	}

	normalized, err := json.Marshal(&cv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if err := schemas.Validate(schemas.CV, normalized); err != nil {
		return nil, schemaError(err, err)
	}
	return &cv, nil
}

func schemaError(validation, cause error) error {
	se := &SchemaError{Cause: cause}
	var ve *schemas.ValidationError
	if errors.As(validation, &ve) {
		se.Details = ve.Details()
	} else if cause != nil {
		se.Details = []string{cause.Error()}
	}
	return se
}
