package ats

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/prompts"
	"github.com/jonathan/cv-assistant/internal/retry"
	"github.com/jonathan/cv-assistant/internal/schemas"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	// DefaultRoleFitScore is reported when the model gives no usable answer
	DefaultRoleFitScore = 50

	roleFitAttempts  = 2
	roleFitMaxTokens = 300
)

// Request is the input of a scoring call
type Request struct {
	CV             *types.CV    `json:"cv" validate:"required"`
	TargetRole     string       `json:"targetRole" validate:"required"`
	JobDescription string       `json:"jobDescription,omitempty"`
	Locale         types.Locale `json:"locale" validate:"required,oneof=tr en"`
}

// Scorer combines the ATS checks with a role-fit judgement
type Scorer struct {
	client  llm.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Scorer
type Option func(*Scorer)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScorer creates a Scorer. A nil client disables role fit and every
// score reports DefaultRoleFitScore.
func NewScorer(client llm.Client, opts ...Option) *Scorer {
	s := &Scorer{client: client, logger: slog.Default(), timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type roleFit struct {
	Score   float64  `json:"roleFitScore"`
	Reasons []string `json:"reasons"`
}

// Score never fails because of the model: when role fit cannot be obtained
// the default score is used with no reasons. Only invalid requests and
// context cancellation are returned as errors.
func (s *Scorer) Score(ctx context.Context, req Request) (*types.ScoreResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	var (
		checks CheckResult
		fit    = roleFit{Score: DefaultRoleFitScore, Reasons: []string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checks = RunChecks(req.CV, Context{TargetRole: req.TargetRole, JobDescription: req.JobDescription})
		return nil
	})
	g.Go(func() error {
		if got, ok := s.roleFit(gctx, req); ok {
			fit = got
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &types.ScoreResult{
		ATSScore:     checks.Score,
		RoleFitScore: int(math.Round(fit.Score)),
		Issues:       checks.Issues,
		FixHints:     DeriveFixHints(checks.Issues, fit.Reasons),
	}, nil
}

func (s *Scorer) roleFit(ctx context.Context, req Request) (roleFit, bool) {
	if s.client == nil {
		return roleFit{}, false
	}

	cvJSON, err := json.MarshalIndent(req.CV, "", "  ")
	if err != nil {
		return roleFit{}, false
	}
	pair, err := prompts.RenderPair("scoring.json", "rolefit", map[string]string{
		"TargetRole":     req.TargetRole,
		"Locale":         string(req.Locale),
		"JobDescription": req.JobDescription,
		"CV":             string(cvJSON),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "role fit prompt unavailable", slog.Any("error", err))
		return roleFit{}, false
	}

	opts := llm.GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   roleFitMaxTokens,
		Timeout:     s.timeout,
		Tier:        llm.TierLite,
	}
	fit, err := retry.Do(ctx, roleFitAttempts, func(ctx context.Context, _ retry.Attempt) (roleFit, error) {
		var out roleFit
		_, err := llm.CallJSON(ctx, s.client, pair.System, pair.User, opts, validateRoleFit, &out)
		return out, err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "role fit unavailable, using default", slog.Any("error", err))
		return roleFit{}, false
	}
	if fit.Reasons == nil {
		fit.Reasons = []string{}
	}
	return fit, true
}

func validateRoleFit(doc []byte) error {
	return schemas.Validate(schemas.RoleFitResponse, doc)
}
