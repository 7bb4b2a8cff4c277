package panels

import (
	"strings"

	"github.com/jonathan/resume-assistant/internal/types"
)

// Validation badge labels.
const (
	ValidationOKLabel     = "Validation OK"
	ValidationIssuesLabel = "Validation issues"
)

// Bullet is one resume bullet ready for display.
type Bullet struct {
	Text     string
	Skills   []string
	Evidence string
}

// Generation is the Generation Results view model.
type Generation struct {
	Mode     Mode
	Warnings []string
	// Badge is empty when the backend did not report a validation verdict.
	Badge               string
	ValidationOK        bool
	Bullets             []Bullet
	CoverLetter         string
	CoverLetterEvidence string
}

// BulletCount is the number of resume bullets.
func (g Generation) BulletCount() int {
	return len(g.Bullets)
}

// BuildGeneration derives the Generation Results panel.
func BuildGeneration(result *types.PipelineResponse, loading bool) Generation {
	g := Generation{Mode: modeFor(loading, result != nil)}
	if g.Mode != ModePopulated {
		return g
	}

	g.Warnings = MergeWarnings(result.Generation.Warnings, result.Validation.Warnings)
	if ok := result.Validation.OK; ok != nil {
		g.ValidationOK = *ok
		g.Badge = ValidationIssuesLabel
		if *ok {
			g.Badge = ValidationOKLabel
		}
	}

	for _, b := range result.Generation.ResumeBullets {
		g.Bullets = append(g.Bullets, Bullet{
			Text:     b.Text,
			Skills:   copyStrings(b.SkillsUsed),
			Evidence: EvidenceLine(b.EvidenceChunks),
		})
	}
	g.CoverLetter = result.Generation.CoverLetter.Text
	g.CoverLetterEvidence = EvidenceLine(result.Generation.CoverLetter.EvidenceChunks)
	return g
}

// MergeWarnings lists generation warnings first, then validation warnings
// rendered as "code: message".
func MergeWarnings(generation []string, validation []types.ValidationWarning) []string {
	if len(generation)+len(validation) == 0 {
		return nil
	}
	out := make([]string, 0, len(generation)+len(validation))
	out = append(out, generation...)
	for _, w := range validation {
		out = append(out, w.Code+": "+w.Message)
	}
	return out
}

// EvidenceLine formats chunk ids as "Evidence: a, b".
func EvidenceLine(ids []string) string {
	return "Evidence: " + strings.Join(ids, ", ")
}
