// Package gaps asks the model for weaknesses in a CV relative to a target
// role and keeps only findings that point at fields which really exist.
package gaps

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
	"github.com/jonathan/cv-assistant/internal/taxonomy"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	maxAttempts = 2
	maxTokens   = 800
	// shortenedCVUnits caps the CV JSON sent on a retry
	shortenedCVUnits = 2000
)

// ErrGapAnalysisFailed is returned when no usable answer was produced
var ErrGapAnalysisFailed = errors.New("gap analysis failed")

// Request is the input of a gap analysis
type Request struct {
	CV             *types.CV    `json:"cv" validate:"required"`
	TargetRole     string       `json:"targetRole" validate:"required"`
	JobDescription string       `json:"jobDescription,omitempty"`
	Locale         types.Locale `json:"locale" validate:"required,oneof=tr en"`
	SectorID       string       `json:"sectorId,omitempty"`
	RoleID         string       `json:"roleId,omitempty"`
}

// Analyzer runs gap analyses. It is safe for concurrent use.
type Analyzer struct {
	client   llm.Client
	taxonomy *taxonomy.Provider
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTaxonomy enables role keyword expansion
func WithTaxonomy(p *taxonomy.Provider) Option {
	return func(a *Analyzer) { a.taxonomy = p }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAnalyzer creates an Analyzer backed by client
func NewAnalyzer(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{client: client, logger: slog.Default(), timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the gaps whose path exists in req.CV. A retry after an
// unusable reply resends the prompt with the CV JSON shortened.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*types.GapsResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	keywords, err := a.roleKeywords(req)
	if err != nil {
		a.logger.WarnContext(ctx, "taxonomy unavailable, continuing without role keywords", slog.Any("error", err))
	}

	cvJSON, err := json.MarshalIndent(req.CV, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cv: %w", err)
	}

	opts := llm.GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   maxTokens,
		Timeout:     a.timeout,
		Tier:        llm.TierStandard,
	}

	result, err := retry.Do(ctx, maxAttempts, func(ctx context.Context, at retry.Attempt) (*types.GapsResult, error) {
		shorten := !at.First() && !llm.IsTransport(at.Prior)
		pair, err := buildPrompt(req, keywords, string(cvJSON), shorten)
		if err != nil {
			return nil, retry.Permanent(err)
		}

		var resp types.GapsResult
		if _, err := llm.CallJSON(ctx, a.client, pair.System, pair.User, opts, validateResponse, &resp); err != nil {
			a.logger.DebugContext(ctx, "gap analysis attempt failed", slog.Int("attempt", at.Number), slog.Any("error", err))
			return nil, err
		}
		return filterGaps(req.CV, &resp), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGapAnalysisFailed, err)
	}
	return result, nil
}

func validateResponse(doc []byte) error {
	return schemas.Validate(schemas.GapsResponse, doc)
}

func (a *Analyzer) roleKeywords(req Request) ([]string, error) {
	keywords, ok, err := a.taxonomy.RoleKeywords(req.SectorID, req.RoleID)
	if err != nil || !ok {
		return nil, err
	}
	return keywords, nil
}

func buildPrompt(req Request, keywords []string, cvJSON string, shorten bool) (prompts.Pair, error) {
	if shorten {
		cvJSON = quality.TruncateUnits(cvJSON, shortenedCVUnits)
	}
	jd := ""
	if req.JobDescription != "" {
		jd = NormalizeJobDescription(req.JobDescription)
	}
	return prompts.RenderPair("gaps.json", "gaps", map[string]string{
		"TargetRole":     req.TargetRole,
		"Locale":         string(req.Locale),
		"JobDescription": jd,
		"RoleKeywords":   strings.Join(keywords, ", "),
		"CV":             cvJSON,
	})
}

func filterGaps(cv *types.CV, resp *types.GapsResult) *types.GapsResult {
	out := &types.GapsResult{
		Gaps:            make([]types.Gap, 0, len(resp.Gaps)),
		MissingKeywords: resp.MissingKeywords,
	}
	if out.MissingKeywords == nil {
		out.MissingKeywords = []string{}
	}
	for _, g := range resp.Gaps {
		if PathExists(cv, g.Path) {
			out.Gaps = append(out.Gaps, g)
		}
	}
	return out
}
