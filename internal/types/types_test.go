package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearMonth_JSON(t *testing.T) {
	var exp Experience
	require.NoError(t, json.Unmarshal([]byte(`{"role": "Engineer", "startDate": "2021-03", "endDate": null, "bullets": []}`), &exp))
	assert.Equal(t, YearMonth("2021-03"), exp.StartDate)
	assert.Equal(t, YearMonth(""), exp.EndDate)

	out, err := json.Marshal(exp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"endDate":null`)
	assert.Contains(t, string(out), `"startDate":"2021-03"`)

	err = json.Unmarshal([]byte(`{"startDate": 2021}`), &exp)
	assert.ErrorContains(t, err, "year-month must be a string or null")
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2021/3":   "2021-03",
		"2021.03":  "2021-03",
		"2021-3":   "2021-03",
		"2021-11":  "2021-11",
		"present":  "present",
		"":         "",
		"Mar 2021": "Mar 2021",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDate(in), in)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://www.example.com", NormalizeURL("  www.example.com "))
	assert.Equal(t, "https://github.com/ada", NormalizeURL("https://github.com/ ada"))
}

func TestCV_Normalize(t *testing.T) {
	cv := CV{
		Experience: []Experience{{StartDate: "2020/1", EndDate: ""}},
		Education:  []Education{{StartDate: "2015.9", EndDate: "2019/6"}},
		Links:      []Link{{Type: "portfolio", URL: "www.ada.dev"}},
	}
	cv.Normalize()

	assert.Equal(t, YearMonth("2020-01"), cv.Experience[0].StartDate)
	assert.Equal(t, YearMonth(""), cv.Experience[0].EndDate)
	assert.Equal(t, YearMonth("2015-09"), cv.Education[0].StartDate)
	assert.Equal(t, YearMonth("2019-06"), cv.Education[0].EndDate)
	assert.Equal(t, "https://www.ada.dev", cv.Links[0].URL)
}

func TestSkills_Count(t *testing.T) {
	s := Skills{Primary: []string{"Go"}, Secondary: []string{"SQL", "Redis"}}
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 0, Skills{}.Count())
}

func TestLocale_Valid(t *testing.T) {
	assert.True(t, LocaleEN.Valid())
	assert.True(t, LocaleTR.Valid())
	assert.False(t, Locale("de").Valid())
	assert.False(t, Locale("").Valid())
}

func TestValidate_RewriteRequest(t *testing.T) {
	err := Validate(RewriteRequest{Before: "Built the API.", Locale: LocaleEN})
	assert.NoError(t, err)

	err = Validate(RewriteRequest{Locale: "de"})
	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Violations, 2)

	assert.Equal(t, FieldViolation{Field: "before", Code: "required", Message: "is required"}, invalid.Violations[0])
	assert.Equal(t, "locale", invalid.Violations[1].Field)
	assert.Equal(t, "oneof", invalid.Violations[1].Code)
	assert.Equal(t, "must be one of: tr en", invalid.Violations[1].Message)
	assert.Contains(t, err.Error(), "before is required")
}

func TestValidate_NestedPaths(t *testing.T) {
	cv := CV{
		Links: []Link{{Type: "blog", URL: "https://ada.dev"}},
		Experience: []Experience{{
			Bullets: []Bullet{{Text: ""}},
		}},
	}
	violations := ValidateStruct(cv)
	require.Len(t, violations, 2)

	fields := []string{violations[0].Field, violations[1].Field}
	assert.Contains(t, fields, "links[0].type")
	assert.Contains(t, fields, "experience[0].bullets[0].text")
}

func TestSession_AskedIDs(t *testing.T) {
	s := &Session{Asked: []AskedQuestion{{ID: "q1", Target: "summary"}, {ID: "q2", Target: "skills"}}}
	assert.Equal(t, []string{"q1", "q2"}, s.AskedIDs())
	assert.Empty(t, (&Session{}).AskedIDs())
}
