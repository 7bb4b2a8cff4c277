package panels

import (
	"fmt"
	"sort"

	"github.com/jonathan/resume-assistant/internal/types"
)

const defaultSection = "Profile"

// EvidenceEntry is one requirement with its supporting chunks.
type EvidenceEntry struct {
	Requirement string
	Matched     bool
	Score       float64
	Chunks      []Chunk
}

// Label is "Matched" or "Missing".
func (e EvidenceEntry) Label() string {
	if e.Matched {
		return "Matched"
	}
	return "Missing"
}

// ScoreText is the aggregate score with two decimals.
func (e EvidenceEntry) ScoreText() string {
	return FormatScore(e.Score)
}

// Chunk is one evidence chunk ready for display.
type Chunk struct {
	ID      string
	Section string
	Text    string
	Skills  []string
	Scores  types.ChunkScores
}

// ScoreLine lists the sub-scores with two decimals.
func (c Chunk) ScoreLine() string {
	return fmt.Sprintf("final %s · tfidf %s · bm25 %s · embed %s",
		FormatScore(c.Scores.Final),
		FormatScore(c.Scores.TFIDF),
		FormatScore(c.Scores.BM25),
		FormatScore(c.Scores.Embed),
	)
}

// HasSkills reports whether skill badges should render.
func (c Chunk) HasSkills() bool {
	return len(c.Skills) > 0
}

// Evidence is the Evidence panel view model.
type Evidence struct {
	Mode    Mode
	Entries []EvidenceEntry
}

// BuildEvidence derives the Evidence panel. Entries are ordered by score,
// highest first, keeping the backend's order for equal scores; chunks within
// an entry are ordered the same way by final score.
func BuildEvidence(result *types.PipelineResponse, loading bool) Evidence {
	present := result != nil && result.EvidenceMap.Len() > 0
	e := Evidence{Mode: modeFor(loading, present)}
	if e.Mode != ModePopulated {
		return e
	}

	items := result.EvidenceMap.Items()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	e.Entries = make([]EvidenceEntry, 0, len(items))
	for _, item := range items {
		e.Entries = append(e.Entries, EvidenceEntry{
			Requirement: item.Requirement,
			Matched:     item.Matched,
			Score:       item.Score,
			Chunks:      displayChunks(item.Chunks),
		})
	}
	return e
}

func displayChunks(in []types.EvidenceChunk) []Chunk {
	out := make([]Chunk, 0, len(in))
	for _, c := range in {
		section := c.Section
		if section == "" {
			section = defaultSection
		}
		out = append(out, Chunk{
			ID:      c.ChunkID,
			Section: section,
			Text:    c.Text,
			Skills:  copyStrings(c.SkillsFound),
			Scores:  c.Scores,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Scores.Final > out[j].Scores.Final
	})
	return out
}

// FormatScore renders a score with exactly two decimals.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
