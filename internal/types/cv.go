// Package types provides type definitions for structured data used throughout the CV assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// YearMonth is a "YYYY-MM" date. The zero value encodes as JSON null,
// which means the date is unknown (or ongoing for an end date).
type YearMonth string

// MarshalJSON encodes an empty YearMonth as null
func (y YearMonth) MarshalJSON() ([]byte, error) {
	if y == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(y))
}

// UnmarshalJSON accepts a string or null
func (y *YearMonth) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*y = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("year-month must be a string or null: %w", err)
	}
	*y = YearMonth(s)
	return nil
}

// ImpactMetric quantifies the outcome described by a bullet
type ImpactMetric struct {
	Type     string  `json:"type" validate:"oneof=% abs time money"`
	Value    float64 `json:"value"`
	Baseline string  `json:"baseline,omitempty"`
}

// Bullet is a single achievement line inside an experience entry
type Bullet struct {
	Text         string        `json:"text" validate:"required"`
	ImpactMetric *ImpactMetric `json:"impactMetric,omitempty"`
}

// Experience is a single position held by the candidate
type Experience struct {
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Location  string    `json:"location,omitempty"`
	StartDate YearMonth `json:"startDate"`
	EndDate   YearMonth `json:"endDate"`
	Bullets   []Bullet  `json:"bullets" validate:"dive"`
}

// Education is a single degree or program
type Education struct {
	School    string    `json:"school"`
	Degree    string    `json:"degree"`
	Field     string    `json:"field,omitempty"`
	StartDate YearMonth `json:"startDate"`
	EndDate   YearMonth `json:"endDate"`
}

// Skills groups skills by importance
type Skills struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Tools     []string `json:"tools"`
}

// Count returns the number of skills across all groups
func (s Skills) Count() int {
	return len(s.Primary) + len(s.Secondary) + len(s.Tools)
}

// Link is an external profile or portfolio URL
type Link struct {
	Type string `json:"type" validate:"oneof=github portfolio linkedin other"`
	URL  string `json:"url" validate:"required"`
}

// CV is the canonical structured résumé shared by every feature
type CV struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone,omitempty"`
	Headline   string       `json:"headline,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Location   string       `json:"location,omitempty"`
	Links      []Link       `json:"links" validate:"dive"`
	Skills     Skills       `json:"skills"`
	Experience []Experience `json:"experience" validate:"dive"`
	Education  []Education  `json:"education"`
}

var (
	looseDatePattern = regexp.MustCompile(`(\d{4})[/.\-](\d{1,2})`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// NormalizeDate rewrites "2021/3", "2021.03" or "2021-3" as "2021-03".
// Values that do not contain a year-month pair are returned unchanged.
func NormalizeDate(s string) string {
	m := looseDatePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	month := m[2]
	if len(month) == 1 {
		month = "0" + month
	}
	return m[1] + "-" + month
}

// NormalizeURL trims whitespace, prefixes bare "www." hosts with https://
// and removes any embedded whitespace.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "www.") {
		s = "https://" + s
	}
	return whitespaceRun.ReplaceAllString(s, "")
}

// Normalize cleans up model-extracted dates and links in place
func (cv *CV) Normalize() {
	for i := range cv.Experience {
		exp := &cv.Experience[i]
		exp.StartDate = YearMonth(NormalizeDate(string(exp.StartDate)))
		exp.EndDate = YearMonth(NormalizeDate(string(exp.EndDate)))
	}
	for i := range cv.Education {
		ed := &cv.Education[i]
		ed.StartDate = YearMonth(NormalizeDate(string(ed.StartDate)))
		ed.EndDate = YearMonth(NormalizeDate(string(ed.EndDate)))
	}
	for i := range cv.Links {
		cv.Links[i].URL = NormalizeURL(cv.Links[i].URL)
	}
}
