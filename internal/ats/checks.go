// Package ats scores a CV the way an applicant tracking system would read it
// and combines that score with a model's judgement of role fit.
package ats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/cv-assistant/internal/quality"
	"github.com/jonathan/cv-assistant/internal/types"
)

// Check weights; a check contributes its weight only when it finds no issue
const (
	WeightRequired = 20
	WeightDates    = 20
	WeightBullets  = 15
	WeightLinks    = 10
	WeightContacts = 10
	WeightKeywords = 25

	maxMissingKeywords = 5
)

var (
	datePattern    = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	urlPattern     = regexp.MustCompile(`(?i)^https?://`)
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9\s-]{7,15}$`)
	keywordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+#.\-]{2,}`)
)

// Context carries what the CV is being measured against
type Context struct {
	TargetRole     string
	JobDescription string
}

// CheckResult is the deterministic part of a score
type CheckResult struct {
	Score  int
	Issues []types.Issue
}

type check struct {
	weight int
	run    func(cv *types.CV, c Context) []types.Issue
}

var checks = []check{
	{WeightRequired, func(cv *types.CV, _ Context) []types.Issue { return checkRequired(cv) }},
	{WeightDates, func(cv *types.CV, _ Context) []types.Issue { return checkDates(cv) }},
	{WeightBullets, func(cv *types.CV, _ Context) []types.Issue { return checkBullets(cv) }},
	{WeightLinks, func(cv *types.CV, _ Context) []types.Issue { return checkLinks(cv) }},
	{WeightContacts, func(cv *types.CV, _ Context) []types.Issue { return checkContacts(cv) }},
	{WeightKeywords, checkKeywords},
}

// RunChecks runs every check in a fixed order. Issues are reported in check
// order, and within a check in document order.
func RunChecks(cv *types.CV, c Context) CheckResult {
	res := CheckResult{Issues: []types.Issue{}}
	for _, chk := range checks {
		issues := chk.run(cv, c)
		if len(issues) == 0 {
			res.Score += chk.weight
			continue
		}
		res.Issues = append(res.Issues, issues...)
	}
	return res
}

func checkRequired(cv *types.CV) []types.Issue {
	var issues []types.Issue
	if strings.TrimSpace(cv.Summary) == "" {
		issues = append(issues, types.Issue{Path: "summary", Message: "Missing professional summary"})
	}
	if len(cv.Experience) == 0 {
		issues = append(issues, types.Issue{Path: "experience", Message: "Experience section is empty"})
	}
	if cv.Skills.Count() == 0 {
		issues = append(issues, types.Issue{Path: "skills", Message: "Skills section is empty"})
	}
	return issues
}

func checkDates(cv *types.CV) []types.Issue {
	var issues []types.Issue
	for i, exp := range cv.Experience {
		issues = append(issues, dateRange(fmt.Sprintf("experience[%d]", i), exp.StartDate, exp.EndDate)...)
	}
	for i, ed := range cv.Education {
		issues = append(issues, dateRange(fmt.Sprintf("education[%d]", i), ed.StartDate, ed.EndDate)...)
	}
	return issues
}

// dateRange requires a valid start; the end may be unknown. YYYY-MM strings
// order correctly under plain comparison.
func dateRange(prefix string, start, end types.YearMonth) []types.Issue {
	var issues []types.Issue
	if start == "" || !datePattern.MatchString(string(start)) {
		issues = append(issues, types.Issue{Path: prefix + ".startDate", Message: "Invalid date format"})
	}
	if end != "" && !datePattern.MatchString(string(end)) {
		issues = append(issues, types.Issue{Path: prefix + ".endDate", Message: "Invalid date format"})
	}
	if start != "" && end != "" && end < start {
		issues = append(issues, types.Issue{Path: prefix + ".endDate", Message: "End date before start date"})
	}
	return issues
}

func checkBullets(cv *types.CV) []types.Issue {
	var issues []types.Issue
	for i, exp := range cv.Experience {
		for j, b := range exp.Bullets {
			path := fmt.Sprintf("experience[%d].bullets[%d]", i, j)
			if !quality.WithinLimits(b.Text) {
				issues = append(issues, types.Issue{Path: path, Message: "Bullet too long"})
			}
			if !strings.HasSuffix(strings.TrimSpace(b.Text), ".") {
				issues = append(issues, types.Issue{Path: path, Message: "Bullet should end with a period"})
			}
		}
	}
	return issues
}

func checkLinks(cv *types.CV) []types.Issue {
	var issues []types.Issue
	for i, link := range cv.Links {
		if !urlPattern.MatchString(link.URL) {
			issues = append(issues, types.Issue{Path: fmt.Sprintf("links[%d].url", i), Message: "Invalid link URL"})
		}
	}
	return issues
}

func checkContacts(cv *types.CV) []types.Issue {
	var issues []types.Issue
	if !emailPattern.MatchString(cv.Email) {
		issues = append(issues, types.Issue{Path: "email", Message: "Invalid email format"})
	}
	if cv.Phone != "" && !phonePattern.MatchString(cv.Phone) {
		issues = append(issues, types.Issue{Path: "phone", Message: "Invalid phone number format"})
	}
	return issues
}

// checkKeywords looks for each distinct keyword of the job description (or
// the target role when there is none) anywhere in the CV's JSON text
func checkKeywords(cv *types.CV, c Context) []types.Issue {
	haystack := strings.ToLower(cvText(cv))
	source := c.JobDescription
	if source == "" {
		source = c.TargetRole
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, tok := range keywordPattern.FindAllString(strings.ToLower(source), -1) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if !strings.Contains(haystack, tok) {
			missing = append(missing, tok)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) > maxMissingKeywords {
		missing = missing[:maxMissingKeywords]
	}
	return []types.Issue{{Message: "Missing keywords: " + strings.Join(missing, ", ")}}
}

func cvText(cv *types.CV) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cv); err != nil {
		return ""
	}
	return buf.String()
}

// DeriveFixHints merges issue messages and role-fit reasons, keeping the
// first occurrence of each
func DeriveFixHints(issues []types.Issue, reasons []string) []string {
	hints := make([]string, 0, len(issues)+len(reasons))
	seen := make(map[string]struct{}, cap(hints))
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		hints = append(hints, s)
	}
	for _, is := range issues {
		add(is.Message)
	}
	for _, r := range reasons {
		add(r)
	}
	return hints
}
