// Package questions generates follow-up questions that help the candidate
// close the gaps found in their CV.
package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/prompts"
	"github.com/jonathan/cv-assistant/internal/quality"
	"github.com/jonathan/cv-assistant/internal/retry"
	"github.com/jonathan/cv-assistant/internal/schemas"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	maxAttempts = 2
	maxTokens   = 500
	// MaxQuestions is the most questions returned by one call
	MaxQuestions = 3

	shortenedGapsUnits = 2000
)

// ErrQuestionGenerationFailed is returned when no usable answer was produced
var ErrQuestionGenerationFailed = errors.New("question generation failed")

// Request is the input of a question round
type Request struct {
	Gaps         []types.Gap  `json:"gaps" validate:"required,dive"`
	AlreadyAsked []string     `json:"alreadyAsked"`
	Locale       types.Locale `json:"locale" validate:"required,oneof=tr en"`
}

// Generator produces follow-up questions
type Generator struct {
	client  llm.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGenerator creates a Generator backed by client
func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{client: client, logger: slog.Default(), timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type questionsResponse struct {
	Questions []types.Question `json:"questions"`
}

// Next returns up to MaxQuestions new questions. Questions whose stable id
// is listed in req.AlreadyAsked are dropped, so the result may be empty.
func (g *Generator) Next(ctx context.Context, req Request) ([]types.Question, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	gapsJSON, err := json.MarshalIndent(req.Gaps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode gaps: %w", err)
	}
	asked := req.AlreadyAsked
	if asked == nil {
		asked = []string{}
	}
	askedJSON, err := json.Marshal(asked)
	if err != nil {
		return nil, fmt.Errorf("encode asked ids: %w", err)
	}

	opts := llm.GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   maxTokens,
		Timeout:     g.timeout,
		Tier:        llm.TierLite,
	}

	out, err := retry.Do(ctx, maxAttempts, func(ctx context.Context, at retry.Attempt) ([]types.Question, error) {
		gaps := string(gapsJSON)
		if !at.First() && !llm.IsTransport(at.Prior) {
			gaps = quality.TruncateUnits(gaps, shortenedGapsUnits)
		}
		pair, err := prompts.RenderPair("questions.json", "questions", map[string]string{
			"Locale":       string(req.Locale),
			"Gaps":         gaps,
			"AlreadyAsked": string(askedJSON),
		})
		if err != nil {
			return nil, retry.Permanent(err)
		}

		var resp questionsResponse
		if _, err := llm.CallJSON(ctx, g.client, pair.System, pair.User, opts, validateResponse, &resp); err != nil {
			g.logger.DebugContext(ctx, "question attempt failed", slog.Int("attempt", at.Number), slog.Any("error", err))
			return nil, err
		}
		return selectQuestions(resp.Questions, asked), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionGenerationFailed, err)
	}
	return out, nil
}

func validateResponse(doc []byte) error {
	return schemas.Validate(schemas.QuestionsResponse, doc)
}

func selectQuestions(in []types.Question, asked []string) []types.Question {
	seen := make(map[string]struct{}, len(asked))
	for _, id := range asked {
		seen[id] = struct{}{}
	}

	out := make([]types.Question, 0, MaxQuestions)
	for _, q := range in {
		text := quality.Trim(q.Text)
		if text == "" {
			continue
		}
		id := StableID(q.Path, text)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, types.Question{ID: id, Path: q.Path, Text: text})
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

// StableID derives the question id from its path and text: a 32-bit FNV-1a
// hash over the UTF-16 code units of "path|text", in lowercase hex.
func StableID(path, text string) string {
	const (
		offset32 = 0x811c9dc5
		prime32  = 0x01000193
	)
	h := uint32(offset32)
	for _, u := range utf16.Encode([]rune(path + "|" + text)) {
		h ^= uint32(u)
		h *= prime32
	}
	return strconv.FormatUint(uint64(h), 16)
}
