// Package types provides type definitions for structured data used throughout the CV assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RewriteRequest asks for a single bullet to be rewritten
type RewriteRequest struct {
	Before         string   `json:"before" validate:"required"`
	UserFacts      []string `json:"userFacts"`
	TargetRole     string   `json:"targetRole,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	Locale         Locale   `json:"locale" validate:"required,oneof=tr en"`
}

// RewriteResult is an accepted rewrite
type RewriteResult struct {
	Before    string `json:"before"`
	After     string `json:"after"`
	Rationale string `json:"rationale,omitempty"`
}

// RewriteAttempt records one model call within a rewrite. It only lives for
// the duration of the request and is used for logging.
type RewriteAttempt struct {
	Number        int
	PromptVariant string
	RawOutput     string
	After         string
	Styled        string
	Passed        bool
	FailureReason string
}
