// Package pipeline runs the whole CV assistant in one pass: extract the CV
// from raw text, then analyze gaps, ask questions, score and rewrite bullets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/types"
)

// Step names reported through ProgressCallback
const (
	StepExtract   = "extract"
	StepGaps      = "gaps"
	StepQuestions = "questions"
	StepScore     = "score"
	StepRewrite   = "rewrite"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when a step finishes. It may be called from
// several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// Request is the input of a run
type Request struct {
	RawText        string       `json:"rawText" validate:"required"`
	TargetRole     string       `json:"targetRole" validate:"required"`
	JobDescription string       `json:"jobDescription,omitempty"`
	Locale         types.Locale `json:"locale" validate:"required,oneof=tr en"`
	SectorID       string       `json:"sectorId,omitempty"`
	RoleID         string       `json:"roleId,omitempty"`
	// RewriteBullets also rewrites every experience bullet
	RewriteBullets bool `json:"rewriteBullets,omitempty"`
}

// BulletRewrite is the outcome for one experience bullet
type BulletRewrite struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result holds every artifact of a run
type Result struct {
	CV        *types.CV          `json:"cv"`
	Gaps      *types.GapsResult  `json:"gaps"`
	Questions []types.Question   `json:"questions"`
	Score     *types.ScoreResult `json:"score"`
	Rewrites  []BulletRewrite    `json:"rewrites,omitempty"`
}

// Pipeline holds the collaborators of a run
type Pipeline struct {
	Extractor *extraction.Extractor
	Analyzer  *gaps.Analyzer
	Generator *questions.Generator
	Scorer    *ats.Scorer
	Rewriter  *rewriting.Rewriter
	Logger    *slog.Logger
}

func (p *Pipeline) emit(cb ProgressCallback, step, message string, content any) {
	p.logger().Info(message, slog.String("step", step))
	if cb != nil {
		cb(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run extracts the CV and then runs the analysis branches in parallel. A
// failure in extraction, gap analysis or question generation fails the run;
// scoring never fails and rewrite rejections are reported per bullet.
func (p *Pipeline) Run(ctx context.Context, req Request, onProgress ProgressCallback) (*Result, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	cv, err := p.Extractor.Extract(ctx, extraction.Request{
		RawText:    req.RawText,
		TargetRole: req.TargetRole,
		Locale:     req.Locale,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	p.emit(onProgress, StepExtract, fmt.Sprintf("Extracted CV with %d experience entries", len(cv.Experience)), cv)

	res := &Result{CV: cv}
	g, gctx := errgroup.WithContext(ctx)

	// Gaps feed the questions, so they share a branch
	g.Go(func() error {
		found, err := p.Analyzer.Analyze(gctx, gaps.Request{
			CV:             cv,
			TargetRole:     req.TargetRole,
			JobDescription: req.JobDescription,
			Locale:         req.Locale,
			SectorID:       req.SectorID,
			RoleID:         req.RoleID,
		})
		if err != nil {
			return fmt.Errorf("gap analysis failed: %w", err)
		}
		res.Gaps = found
		p.emit(onProgress, StepGaps, fmt.Sprintf("Found %d gaps", len(found.Gaps)), found)

		qs, err := p.Generator.Next(gctx, questions.Request{Gaps: found.Gaps, Locale: req.Locale})
		if err != nil {
			return fmt.Errorf("question generation failed: %w", err)
		}
		res.Questions = qs
		p.emit(onProgress, StepQuestions, fmt.Sprintf("Generated %d questions", len(qs)), qs)
		return nil
	})

	g.Go(func() error {
		score, err := p.Scorer.Score(gctx, ats.Request{
			CV:             cv,
			TargetRole:     req.TargetRole,
			JobDescription: req.JobDescription,
			Locale:         req.Locale,
		})
		if err != nil {
			return fmt.Errorf("scoring failed: %w", err)
		}
		res.Score = score
		p.emit(onProgress, StepScore, fmt.Sprintf("ATS score %d, role fit %d", score.ATSScore, score.RoleFitScore), score)
		return nil
	})

	if req.RewriteBullets && p.Rewriter != nil {
		g.Go(func() error {
			res.Rewrites = p.rewriteBullets(gctx, cv, req)
			p.emit(onProgress, StepRewrite, fmt.Sprintf("Rewrote %d bullets", countAccepted(res.Rewrites)), res.Rewrites)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) rewriteBullets(ctx context.Context, cv *types.CV, req Request) []BulletRewrite {
	var (
		reqs []types.RewriteRequest
		out  []BulletRewrite
	)
	for i, exp := range cv.Experience {
		for j, b := range exp.Bullets {
			out = append(out, BulletRewrite{Path: fmt.Sprintf("experience[%d].bullets[%d]", i, j), Before: b.Text})
			reqs = append(reqs, types.RewriteRequest{
				Before:         b.Text,
				UserFacts:      []string{},
				TargetRole:     req.TargetRole,
				JobDescription: req.JobDescription,
				Locale:         req.Locale,
			})
		}
	}

	for _, item := range p.Rewriter.RewriteAll(ctx, reqs, rewriting.DefaultConcurrency) {
		if item.Err != nil {
			out[item.Index].Error = item.Err.Error()
			var rejected *rewriting.RejectedError
			if errors.As(item.Err, &rejected) {
				out[item.Index].Error = rejected.Reason.Message()
			}
			continue
		}
		out[item.Index].After = item.Result.After
	}
	return out
}

func countAccepted(items []BulletRewrite) int {
	n := 0
	for _, it := range items {
		if it.After != "" {
			n++
		}
	}
	return n
}
