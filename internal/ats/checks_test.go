package ats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-assistant/internal/types"
)

func cleanCV() *types.CV {
	return &types.CV{
		Name:     "Ada Yilmaz",
		Email:    "ada@example.com",
		Phone:    "+90 555 123 4567",
		Headline: "Backend Engineer",
		Summary:  "Backend engineer building payment systems in Go.",
		Links:    []types.Link{{Type: "github", URL: "https://github.com/ada"}},
		Skills:   types.Skills{Primary: []string{"Go", "PostgreSQL"}, Secondary: []string{}, Tools: []string{"Docker"}},
		Experience: []types.Experience{{
			Role:      "Engineer",
			Company:   "Acme",
			StartDate: "2020-01",
			EndDate:   "2023-06",
			Bullets:   []types.Bullet{{Text: "Built the billing API serving 2M requests per day."}},
		}},
		Education: []types.Education{{School: "METU", Degree: "BSc", StartDate: "2014-09", EndDate: "2018-06"}},
	}
}

func backendContext() Context {
	return Context{TargetRole: "Backend Engineer"}
}

func TestRunChecks_CleanCVScoresFull(t *testing.T) {
	res := RunChecks(cleanCV(), backendContext())
	assert.Equal(t, 100, res.Score)
	assert.NotNil(t, res.Issues)
	assert.Empty(t, res.Issues)
}

func TestRunChecks_Required(t *testing.T) {
	cv := cleanCV()
	cv.Summary = "   "
	cv.Skills = types.Skills{}

	res := RunChecks(cv, backendContext())
	assert.Equal(t, 100-WeightRequired, res.Score)
	assert.Equal(t, []types.Issue{
		{Path: "summary", Message: "Missing professional summary"},
		{Path: "skills", Message: "Skills section is empty"},
	}, res.Issues)
}

func TestRunChecks_Dates(t *testing.T) {
	tests := []struct {
		name       string
		start, end types.YearMonth
		want       []types.Issue
	}{
		{"open ended", "2020-01", "", nil},
		{"missing start", "", "2020-01", []types.Issue{{Path: "experience[0].startDate", Message: "Invalid date format"}}},
		{"bad month", "2020-13", "", []types.Issue{{Path: "experience[0].startDate", Message: "Invalid date format"}}},
		{"bad end", "2020-01", "2021/02", []types.Issue{{Path: "experience[0].endDate", Message: "Invalid date format"}}},
		{"reversed", "2021-05", "2020-01", []types.Issue{{Path: "experience[0].endDate", Message: "End date before start date"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := cleanCV()
			cv.Experience[0].StartDate, cv.Experience[0].EndDate = tt.start, tt.end

			res := RunChecks(cv, backendContext())
			if tt.want == nil {
				assert.Equal(t, 100, res.Score)
				return
			}
			assert.Equal(t, 100-WeightDates, res.Score)
			assert.Equal(t, tt.want, res.Issues)
		})
	}
}

func TestRunChecks_EducationDates(t *testing.T) {
	cv := cleanCV()
	cv.Education[0].EndDate = "2013-01"

	res := RunChecks(cv, backendContext())
	assert.Equal(t, []types.Issue{{Path: "education[0].endDate", Message: "End date before start date"}}, res.Issues)
}

func TestRunChecks_Bullets(t *testing.T) {
	cv := cleanCV()
	cv.Experience[0].Bullets = []types.Bullet{
		{Text: "Built the billing API."},
		{Text: "Owned on-call rotation"},
		{Text: strings.Repeat("word ", 29) + "end."},
	}

	res := RunChecks(cv, backendContext())
	assert.Equal(t, 100-WeightBullets, res.Score)
	assert.Equal(t, []types.Issue{
		{Path: "experience[0].bullets[1]", Message: "Bullet should end with a period"},
		{Path: "experience[0].bullets[2]", Message: "Bullet too long"},
	}, res.Issues)
}

func TestRunChecks_LinksAndContacts(t *testing.T) {
	cv := cleanCV()
	cv.Links = append(cv.Links, types.Link{Type: "portfolio", URL: "ada.dev"}, types.Link{Type: "other", URL: "HTTP://ADA.DEV"})
	cv.Email = "ada@example"
	cv.Phone = "call me"

	res := RunChecks(cv, backendContext())
	assert.Equal(t, 100-WeightLinks-WeightContacts, res.Score)
	assert.Equal(t, []types.Issue{
		{Path: "links[1].url", Message: "Invalid link URL"},
		{Path: "email", Message: "Invalid email format"},
		{Path: "phone", Message: "Invalid phone number format"},
	}, res.Issues)
}

func TestRunChecks_Keywords(t *testing.T) {
	ctx := Context{
		TargetRole:     "Backend Engineer",
		JobDescription: "We need Kubernetes, Kafka, Terraform, gRPC, Rust, C++ and Go experts. Kafka again.",
	}

	res := RunChecks(cleanCV(), ctx)
	assert.Equal(t, 100-WeightKeywords, res.Score)
	require.Len(t, res.Issues, 1)
	assert.Empty(t, res.Issues[0].Path)
	assert.Equal(t, "Missing keywords: need, kubernetes, kafka, terraform, grpc", res.Issues[0].Message)
}

func TestRunChecks_KeywordsFallBackToTargetRole(t *testing.T) {
	res := RunChecks(cleanCV(), Context{TargetRole: "Data Scientist"})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "Missing keywords: data, scientist", res.Issues[0].Message)
}

func TestDeriveFixHints(t *testing.T) {
	issues := []types.Issue{
		{Path: "experience[0].bullets[0]", Message: "Bullet too long"},
		{Path: "experience[0].bullets[1]", Message: "Bullet too long"},
		{Path: "summary", Message: "Missing professional summary"},
	}
	reasons := []string{"Add cloud experience", "Missing professional summary"}

	assert.Equal(t, []string{
		"Bullet too long",
		"Missing professional summary",
		"Add cloud experience",
	}, DeriveFixHints(issues, reasons))
	assert.Equal(t, []string{}, DeriveFixHints(nil, nil))
}
