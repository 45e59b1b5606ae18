// Package server provides the HTTP REST API for the CV assistant.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/finalize"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/session"
	"github.com/jonathan/cv-assistant/internal/types"
)

// Response messages for errors that reach the HTTP edge
const (
	msgInvalidRequest     = "Invalid request"
	msgInvalidSessionID   = "Invalid session id"
	msgSessionNotFound    = "Session not found"
	msgInvalidModelJSON   = "Invalid JSON from model"
	msgInvalidCVSchema    = "Invalid CV schema"
	msgExtractionFailed   = "Extraction failed"
	msgGapAnalysisFailed  = "Gap analysis failed"
	msgQuestionsFailed    = "Question generation failed"
	msgFinalizeOutput     = "Invalid CV from model"
	msgFinalizeFailed     = "Finalize failed"
	msgPipelineFailed     = "Pipeline failed"
	msgRequestTimedOut    = "Request timed out"
	msgInternalError      = "Internal server error"
	msgTooManyRequests    = "Too many requests"
	msgStreamingForbidden = "Streaming not supported"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// errBadBody wraps a request body that could not be decoded
type errBadBody struct {
	Message string
	Cause   error
}

func (e *errBadBody) Error() string {
	return "invalid request body: " + e.Message
}

func (e *errBadBody) Unwrap() error {
	return e.Cause
}

// classify maps an error returned by a domain service to the status code
// and body the API promises for it
func classify(err error) (int, ErrorResponse) {
	var (
		invalid  *types.InvalidRequestError
		badBody  *errBadBody
		rejected *rewriting.RejectedError
		schema   *extraction.SchemaError
	)

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: invalid.Violations}
	case errors.As(err, &badBody):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: []types.FieldViolation{{
			Field:   "(body)",
			Code:    "json",
			Message: badBody.Message,
		}}}
	case errors.Is(err, session.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalidSessionID}
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: msgSessionNotFound}
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: rejected.Reason.Message()}
	case errors.As(err, &schema):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgInvalidCVSchema, Details: schema.Details}
	case errors.Is(err, extraction.ErrInvalidModelJSON):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgInvalidModelJSON}
	case errors.Is(err, extraction.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgExtractionFailed}
	case errors.Is(err, gaps.ErrGapAnalysisFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgGapAnalysisFailed}
	case errors.Is(err, questions.ErrQuestionGenerationFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgQuestionsFailed}
	case errors.Is(err, finalize.ErrInvalidOutput):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgFinalizeOutput}
	case errors.Is(err, finalize.ErrFinalizeFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgFinalizeFailed}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: msgRequestTimedOut}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: msgInternalError}
	}
}
