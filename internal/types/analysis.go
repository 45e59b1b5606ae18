// Package types provides type definitions for structured data used throughout the CV assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Gap is a weakness found in a CV, anchored at a field path such as
// "experience[0].bullets[1]"
type Gap struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// GapsResult is the outcome of a gap analysis
type GapsResult struct {
	Gaps            []Gap    `json:"gaps"`
	MissingKeywords []string `json:"missingKeywords"`
}

// Question is a follow-up question that helps fill a gap
type Question struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
	Text string `json:"text"`
}

// Issue is a problem found by the ATS checks
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ScoreResult combines the ATS score with the model's role-fit judgement
type ScoreResult struct {
	ATSScore     int      `json:"atsScore"`
	RoleFitScore int      `json:"roleFitScore"`
	Issues       []Issue  `json:"issues"`
	FixHints     []string `json:"fixHints"`
}
