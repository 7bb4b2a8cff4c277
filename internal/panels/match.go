package panels

import (
	"math"
	"strconv"

	"github.com/jonathan/resume-assistant/internal/types"
)

// Fallback texts for empty requirement lists.
const (
	NoMatchedText = "None captured."
	NoMissingText = "No gaps detected."
)

// ScoreRow is one progress bar. Width is always within [0, 100]; Value keeps
// whatever the backend sent.
type ScoreRow struct {
	Label string
	Value float64
	Width float64
}

// Display renders the raw score as a percentage label.
func (r ScoreRow) Display() string {
	return strconv.FormatFloat(r.Value, 'f', -1, 64) + "%"
}

// DetailList is an optional list taken from the parsed job description.
type DetailList struct {
	Title string
	Items []string
	// Bulleted lists render as prose lines rather than badges.
	Bulleted bool
}

// Match is the Match Summary view model.
type Match struct {
	Mode    Mode
	Company string
	Role    string
	Scores  []ScoreRow
	Matched []string
	Missing []string
	Details []DetailList
}

// MatchedFallback returns the text shown when no requirement matched, or "".
func (m Match) MatchedFallback() string {
	if len(m.Matched) == 0 {
		return NoMatchedText
	}
	return ""
}

// MissingFallback returns the text shown when nothing is missing, or "".
func (m Match) MissingFallback() string {
	if len(m.Missing) == 0 {
		return NoMissingText
	}
	return ""
}

// BuildMatch derives the Match Summary. formCompany and formRole are used when
// the parsed job description has no company or role.
func BuildMatch(result *types.PipelineResponse, loading bool, formCompany, formRole string) Match {
	m := Match{Mode: modeFor(loading, result != nil)}
	if m.Mode != ModePopulated {
		return m
	}

	report := result.MatchReport
	m.Company = firstNonEmpty(result.JD.CompanyName, formCompany)
	m.Role = firstNonEmpty(result.JD.RoleTitle, formRole)
	m.Scores = []ScoreRow{
		scoreRow("Overall", report.MatchScoreOverall),
		scoreRow("Must have", report.MatchScoreMust),
		scoreRow("Nice to have", report.MatchScoreNice),
	}
	m.Matched = copyStrings(report.MatchedRequirements)
	m.Missing = copyStrings(report.MissingRequirements)

	jd := result.JD
	for _, d := range []DetailList{
		{Title: "Must-have skills", Items: jd.MustHaveSkills},
		{Title: "Nice-to-have skills", Items: jd.NiceToHaveSkills},
		{Title: "Responsibilities", Items: jd.Responsibilities, Bulleted: true},
		{Title: "Keywords", Items: jd.Keywords},
	} {
		if len(d.Items) == 0 {
			continue
		}
		d.Items = copyStrings(d.Items)
		m.Details = append(m.Details, d)
	}
	return m
}

func scoreRow(label string, value float64) ScoreRow {
	return ScoreRow{Label: label, Value: value, Width: ClampPercent(value)}
}

// ClampPercent limits v to [0, 100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 100)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
