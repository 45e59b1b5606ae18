// Package types provides type definitions for structured data used throughout the CV assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// AskedQuestion records a follow-up question that was shown to the user
type AskedQuestion struct {
	ID     string `json:"id"`
	Target string `json:"target"`
}

// Session holds the working state of one CV editing session
type Session struct {
	ID             string          `json:"sessionId"`
	CV             *CV             `json:"cv,omitempty"`
	Gaps           *GapsResult     `json:"gaps,omitempty"`
	TargetRole     string          `json:"targetRole,omitempty"`
	JobDescription string          `json:"jobDescription,omitempty"`
	Locale         Locale          `json:"locale,omitempty"`
	SectorID       string          `json:"sectorId,omitempty"`
	RoleID         string          `json:"roleId,omitempty"`
	Asked          []AskedQuestion `json:"asked"`
	Answers        map[string]any  `json:"answers"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// AskedIDs returns the ids of every question already asked in the session
func (s *Session) AskedIDs() []string {
	ids := make([]string, 0, len(s.Asked))
	for _, q := range s.Asked {
		ids = append(ids, q.ID)
	}
	return ids
}
