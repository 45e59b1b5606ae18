// Package followup runs the question-and-answer loop that fills the gaps of
// a CV: each round analyzes the CV, asks a few questions, and writes the
// user's answers back into the CV before the next round.
package followup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/session"
	"github.com/jonathan/cv-assistant/internal/types"
)

// MaxRounds is the number of answer rounds a client is expected to offer
const MaxRounds = 2

// StartRequest opens a follow-up session
type StartRequest struct {
	CV             *types.CV    `json:"cv" validate:"required"`
	TargetRole     string       `json:"targetRole" validate:"required"`
	JobDescription string       `json:"jobDescription,omitempty"`
	Locale         types.Locale `json:"locale" validate:"required,oneof=tr en"`
	SectorID       string       `json:"sectorId,omitempty"`
	RoleID         string       `json:"roleId,omitempty"`
}

// StartResult is returned by Start
type StartResult struct {
	SessionID     string           `json:"sessionId"`
	NextQuestions []types.Question `json:"nextQuestions"`
	MaxRounds     int              `json:"maxRounds"`
}

// Answer is the user's reply to one asked question
type Answer struct {
	ID    string `json:"id" validate:"required"`
	Value any    `json:"value"`
}

// AnswerRequest submits answers for a session
type AnswerRequest struct {
	SessionID string   `json:"sessionId" validate:"required"`
	Answers   []Answer `json:"answers" validate:"required,dive"`
}

// AnswerResult is returned by Answer. Done is true once no new questions
// remain.
type AnswerResult struct {
	Done          bool             `json:"done"`
	NextQuestions []types.Question `json:"nextQuestions"`
	CV            *types.CV        `json:"cv"`
}

// Service wires gap analysis, question generation and the session store
type Service struct {
	store     session.Store
	analyzer  *gaps.Analyzer
	generator *questions.Generator
	logger    *slog.Logger
}

// NewService creates a Service
func NewService(store session.Store, analyzer *gaps.Analyzer, generator *questions.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, analyzer: analyzer, generator: generator, logger: logger}
}

// Start analyzes the CV, asks the first questions and stores the session
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	found, err := s.analyzer.Analyze(ctx, gaps.Request{
		CV:             req.CV,
		TargetRole:     req.TargetRole,
		JobDescription: req.JobDescription,
		Locale:         req.Locale,
		SectorID:       req.SectorID,
		RoleID:         req.RoleID,
	})
	if err != nil {
		return nil, err
	}

	next, err := s.generator.Next(ctx, questions.Request{Gaps: found.Gaps, Locale: req.Locale})
	if err != nil {
		return nil, err
	}

	sess := &types.Session{
		CV:             req.CV,
		Gaps:           found,
		TargetRole:     req.TargetRole,
		JobDescription: req.JobDescription,
		Locale:         req.Locale,
		SectorID:       req.SectorID,
		RoleID:         req.RoleID,
		Asked:          asked(nil, next),
	}
	id, err := s.store.Create(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "follow-up session started",
		slog.String("session_id", id),
		slog.Int("gaps", len(found.Gaps)),
		slog.Int("questions", len(next)),
	)
	return &StartResult{SessionID: id, NextQuestions: next, MaxRounds: MaxRounds}, nil
}

// Answer writes the answers to asked questions into the session CV,
// re-analyzes it and asks the next questions. Answers to questions that
// were never asked are ignored.
func (s *Service) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.CV == nil {
		return nil, errors.New("session has no CV")
	}

	targets := make(map[string]string, len(sess.Asked))
	for _, q := range sess.Asked {
		targets[q.ID] = q.Target
	}

	cv := sess.CV
	answers := make(map[string]any, len(sess.Answers)+len(req.Answers))
	for k, v := range sess.Answers {
		answers[k] = v
	}
	for _, a := range req.Answers {
		target, ok := targets[a.ID]
		if !ok {
			continue
		}
		answers[a.ID] = a.Value
		if target == "" {
			continue
		}
		updated, err := applyAnswer(cv, target, a.Value)
		if err != nil {
			s.logger.WarnContext(ctx, "answer does not fit the CV field",
				slog.String("question_id", a.ID), slog.String("target", target), slog.Any("error", err))
			continue
		}
		cv = updated
	}

	found, err := s.analyzer.Analyze(ctx, gaps.Request{
		CV:             cv,
		TargetRole:     sess.TargetRole,
		JobDescription: sess.JobDescription,
		Locale:         sess.Locale,
		SectorID:       sess.SectorID,
		RoleID:         sess.RoleID,
	})
	if err != nil {
		return nil, err
	}
	next, err := s.generator.Next(ctx, questions.Request{
		Gaps:         found.Gaps,
		AlreadyAsked: sess.AskedIDs(),
		Locale:       sess.Locale,
	})
	if err != nil {
		return nil, err
	}

	if _, err := session.Update(ctx, s.store, req.SessionID, session.Patch{
		CV:      cv,
		Gaps:    found,
		Asked:   asked(sess.Asked, next),
		Answers: answers,
	}); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &AnswerResult{Done: len(next) == 0, NextQuestions: next, CV: cv}, nil
}

// asked appends the new questions to prev, keeping one entry per target; a
// later question replaces an earlier one with the same target in place
func asked(prev []types.AskedQuestion, next []types.Question) []types.AskedQuestion {
	out := make([]types.AskedQuestion, 0, len(prev)+len(next))
	pos := make(map[string]int, cap(out))
	add := func(q types.AskedQuestion) {
		key := q.Target
		if key == "" {
			key = "#" + q.ID
		}
		if i, ok := pos[key]; ok {
			out[i] = q
			return
		}
		pos[key] = len(out)
		out = append(out, q)
	}
	for _, q := range prev {
		add(q)
	}
	for _, q := range next {
		add(types.AskedQuestion{ID: q.ID, Target: q.Path})
	}
	return out
}

// applyAnswer stores value at target and decodes the result back into a
// CV, which rejects values of the wrong shape
func applyAnswer(cv *types.CV, target string, value any) (*types.CV, error) {
	doc, err := gaps.SetPath(cv, target, value)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out types.CV
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
