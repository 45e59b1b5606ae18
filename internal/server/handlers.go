package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/diff"
	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/finalize"
	"github.com/jonathan/cv-assistant/internal/followup"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/pipeline"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/session"
	"github.com/jonathan/cv-assistant/internal/types"
)

// maxBodyBytes caps request bodies; raw CV text is the largest payload
const maxBodyBytes = 1 << 20

// BatchRewriteRequest rewrites several bullets at once
type BatchRewriteRequest struct {
	Items []types.RewriteRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// BatchRewriteItem is the outcome of one bullet in a batch
type BatchRewriteItem struct {
	Index     int    `json:"index"`
	Before    string `json:"before"`
	After     string `json:"after,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DiffRequest asks for the word diff of a rewrite
type DiffRequest struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// SessionBody holds the client-writable fields of a session
type SessionBody struct {
	CV             *types.CV         `json:"cv,omitempty"`
	Gaps           *types.GapsResult `json:"gaps,omitempty"`
	TargetRole     string            `json:"targetRole,omitempty"`
	JobDescription string            `json:"jobDescription,omitempty"`
	Locale         types.Locale      `json:"locale,omitempty" validate:"omitempty,oneof=tr en"`
	SectorID       string            `json:"sectorId,omitempty"`
	RoleID         string            `json:"roleId,omitempty"`
	Answers        map[string]any    `json:"answers,omitempty"`
}

// decodeJSON reads a single JSON value from the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &errBadBody{Message: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), Cause: err}
		case errors.Is(err, io.EOF):
			return &errBadBody{Message: "body is empty", Cause: err}
		default:
			return &errBadBody{Message: "malformed JSON body", Cause: err}
		}
	}
	return nil
}

func (s *Server) handleRewriteBullet(w http.ResponseWriter, r *http.Request) {
	var req types.RewriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.rewriter.Rewrite(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleRewriteBullets(w http.ResponseWriter, r *http.Request) {
	var req BatchRewriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := types.Validate(req); err != nil {
		s.failure(w, r, err)
		return
	}

	out := make([]BatchRewriteItem, len(req.Items))
	for _, item := range s.rewriter.RewriteAll(r.Context(), req.Items, rewriting.DefaultConcurrency) {
		res := BatchRewriteItem{Index: item.Index, Before: req.Items[item.Index].Before}
		if item.Err != nil {
			_, body := classify(item.Err)
			res.Error = body.Error
		} else {
			res.After = item.Result.After
			res.Rationale = item.Result.Rationale
		}
		out[item.Index] = res
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"parts": diff.Words(req.Before, req.After)})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extraction.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	cv, err := s.extractor.Extract(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"cv": cv})
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	var req gaps.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleNextQuestions(w http.ResponseWriter, r *http.Request) {
	var req questions.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	qs, err := s.generator.Next(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"questions": qs})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ats.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.scorer.Score(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalize.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.finalizer.Finalize(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// pipelineFailure keeps validation errors as 400 and reports every other
// failure as a failed pipeline
func (s *Server) pipelineFailure(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *types.InvalidRequestError
	if errors.As(err, &invalid) {
		s.failure(w, r, err)
		return
	}
	observability.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "pipeline run failed", slog.Any("error", err))
	s.errorResponse(w, http.StatusInternalServerError, msgPipelineFailed)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.pipeline.Run(r.Context(), req, nil)
	if err != nil {
		s.pipelineFailure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handlePipelineStream runs the pipeline and streams each finished step as
// a server-sent event
func (s *Server) handlePipelineStream(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := types.Validate(req); err != nil {
		s.failure(w, r, err)
		return
	}

	stream, err := openEventStream(r.Context(), w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, msgStreamingForbidden)
		return
	}

	lg := observability.LoggerFromContext(r.Context())
	res, err := s.pipeline.Run(r.Context(), req, func(event pipeline.ProgressEvent) {
		if err := stream.send(eventStep, event); err != nil {
			lg.WarnContext(r.Context(), "writing SSE event", slog.Any("error", err))
		}
	})
	if err != nil {
		lg.ErrorContext(r.Context(), "pipeline run failed", slog.Any("error", err))
		if err := stream.fail(msgPipelineFailed); err != nil {
			lg.WarnContext(r.Context(), "writing SSE error", slog.Any("error", err))
		}
		return
	}
	if err := stream.send(eventComplete, res); err != nil {
		lg.WarnContext(r.Context(), "writing SSE result", slog.Any("error", err))
	}
}

func (s *Server) handleFollowupStart(w http.ResponseWriter, r *http.Request) {
	var req followup.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.followup.Start(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleFollowupAnswer(w http.ResponseWriter, r *http.Request) {
	var req followup.AnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	res, err := s.followup.Answer(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body SessionBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := types.Validate(body); err != nil {
		s.failure(w, r, err)
		return
	}

	sess := &types.Session{
		CV:             body.CV,
		Gaps:           body.Gaps,
		TargetRole:     body.TargetRole,
		JobDescription: body.JobDescription,
		Locale:         body.Locale,
		SectorID:       body.SectorID,
		RoleID:         body.RoleID,
		Answers:        body.Answers,
	}
	if _, err := s.sessions.Create(r.Context(), sess); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

// handlePutSession replaces the CV, gaps and answers when the body carries
// them; everything else, including the asked questions, is kept
func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		s.failure(w, r, session.ErrInvalidID)
		return
	}

	var body SessionBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := types.Validate(body); err != nil {
		s.failure(w, r, err)
		return
	}

	sess, err := session.Update(r.Context(), s.sessions, id, session.Patch{
		CV:      body.CV,
		Gaps:    body.Gaps,
		Answers: body.Answers,
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}
