// Package rewriting turns a single CV bullet into a stronger one with the
// help of a language model, accepting the model's answer only when it passes
// the quality gate and adds nothing the user has not stated.
package rewriting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/prompts"
	"github.com/jonathan/cv-assistant/internal/quality"
	"github.com/jonathan/cv-assistant/internal/retry"
	"github.com/jonathan/cv-assistant/internal/schemas"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	promptFile = "rewriting.json"

	// MaxAttempts is the number of model calls a single rewrite may make
	MaxAttempts = 2
	// DefaultTimeout bounds each model call
	DefaultTimeout = 15 * time.Second

	temperature = 0.2
	maxTokens   = 300
)

// Observer receives the outcome of every finished rewrite. The outcome is
// "accepted" or one of the rejection reasons.
type Observer interface {
	ObserveRewrite(outcome string, attempts int)
}

// Rewriter runs the rewrite pipeline. It holds no per-request state and is
// safe for concurrent use.
type Rewriter struct {
	client   llm.Client
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration
}

// Option configures a Rewriter
type Option func(*Rewriter)

// WithLogger sets the logger used for attempt diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver reports outcomes to o
func WithObserver(o Observer) Option {
	return func(r *Rewriter) { r.observer = o }
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(r *Rewriter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRewriter creates a Rewriter backed by client
func NewRewriter(client llm.Client, opts ...Option) *Rewriter {
	r := &Rewriter{
		client:  client,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// rewriteResponse is the JSON object the model is asked to return
type rewriteResponse struct {
	After     string `json:"after"`
	Rationale string `json:"rationale"`
}

// Rewrite produces an accepted rewrite of req.Before or an error. Failures
// are *types.InvalidRequestError (nothing was sent to the model) or
// *RejectedError.
func (r *Rewriter) Rewrite(ctx context.Context, req types.RewriteRequest) (*types.RewriteResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	pair, err := buildPrompt(req)
	if err != nil {
		return nil, &RejectedError{Reason: ReasonModelInvalidOutput, Cause: err}
	}

	opts := llm.GenerateOptions{
		JSONMode:    true,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     r.timeout,
		Tier:        llm.TierLite,
	}

	attempts := 0
	result, err := retry.Do(ctx, MaxAttempts, func(ctx context.Context, a retry.Attempt) (*types.RewriteResult, error) {
		attempts = a.Number
		variant, user := "base", pair.User
		if note := retryNote(a.Prior); note != "" {
			variant = noteVariant(a.Prior)
			user += "\n\n" + note
		}

		rec := types.RewriteAttempt{Number: a.Number, PromptVariant: variant}
		res, err := r.attempt(ctx, req, pair.System, user, opts, &rec)
		r.logAttempt(ctx, rec)
		return res, err
	})

	if err != nil {
		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			rejected = &RejectedError{Reason: ReasonModelInvalidOutput, Attempts: attempts, Cause: err}
		}
		r.observe(string(rejected.Reason), attempts)
		return nil, rejected
	}
	r.observe("accepted", attempts)
	return result, nil
}

func (r *Rewriter) attempt(ctx context.Context, req types.RewriteRequest, system, user string, opts llm.GenerateOptions, rec *types.RewriteAttempt) (*types.RewriteResult, error) {
	reject := func(reason Reason, cause error) error {
		rec.FailureReason = string(reason)
		return &RejectedError{Reason: reason, Attempts: rec.Number, Cause: cause}
	}

	var resp rewriteResponse
	raw, err := llm.CallJSON(ctx, r.client, system, user, opts, validateResponse, &resp)
	rec.RawOutput = raw
	if err != nil {
		return nil, reject(ReasonModelInvalidOutput, err)
	}
	rec.After = resp.After

	styled := quality.EnforceStyle(quality.Trim(resp.After), req.Locale)
	rec.Styled = styled

	if failure := qualityFailure(req.Before, styled); failure != "" {
		return nil, retry.Permanent(reject(ReasonQualityFailed, errors.New(failure)))
	}

	if token, found := quality.FabricatedToken(req.Before, styled, req.UserFacts); found {
		return nil, reject(ReasonFabricationDetected, fmt.Errorf("unverified token %q", token))
	}

	rec.Passed = true
	return &types.RewriteResult{
		Before:    req.Before,
		After:     styled,
		Rationale: resp.Rationale,
	}, nil
}

func validateResponse(doc []byte) error {
	return schemas.Validate(schemas.RewriteResponse, doc)
}

// qualityFailure returns a short description of the first failed check
func qualityFailure(before, styled string) string {
	switch {
	case !quality.IsSingleSentence(styled):
		return "more than one sentence"
	case !quality.WithinLimits(styled):
		return fmt.Sprintf("%d words, %d chars exceeds limits", quality.WordCount(styled), quality.CharLength(styled))
	case !quality.ChangedMeaning(before, styled):
		return "rewrite is identical to the original"
	default:
		return ""
	}
}

func buildPrompt(req types.RewriteRequest) (prompts.Pair, error) {
	facts := req.UserFacts
	if facts == nil {
		facts = []string{}
	}
	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return prompts.Pair{}, fmt.Errorf("encode user facts: %w", err)
	}
	return prompts.RenderPair(promptFile, "rewrite-bullet", map[string]string{
		"Locale":         string(req.Locale),
		"TargetRole":     req.TargetRole,
		"JobDescription": req.JobDescription,
		"StrongVerbs":    strings.Join(quality.StrongVerbs(req.Locale), ", "),
		"Before":         req.Before,
		"UserFacts":      string(factsJSON),
	})
}

// retryNote picks the corrective note for the next attempt. Transport
// failures resend the prompt unchanged.
func retryNote(prior error) string {
	key := noteKey(prior)
	if key == "" {
		return ""
	}
	return prompts.MustGet(promptFile, key)
}

func noteVariant(prior error) string {
	return strings.TrimPrefix(noteKey(prior), "note-")
}

func noteKey(prior error) string {
	var rejected *RejectedError
	if !errors.As(prior, &rejected) {
		return ""
	}
	switch rejected.Reason {
	case ReasonFabricationDetected:
		return "note-fabrication"
	case ReasonModelInvalidOutput:
		if llm.IsTransport(rejected.Cause) {
			return ""
		}
		return "note-invalid-json"
	default:
		return ""
	}
}

func (r *Rewriter) logAttempt(ctx context.Context, rec types.RewriteAttempt) {
	r.logger.DebugContext(ctx, "rewrite attempt",
		slog.Int("attempt", rec.Number),
		slog.String("prompt_variant", rec.PromptVariant),
		slog.Bool("passed", rec.Passed),
		slog.String("failure_reason", rec.FailureReason),
		slog.Int("raw_len", len(rec.RawOutput)),
		slog.String("styled", rec.Styled),
	)
}

func (r *Rewriter) observe(outcome string, attempts int) {
	if r.observer != nil {
		r.observer.ObserveRewrite(outcome, attempts)
	}
}
