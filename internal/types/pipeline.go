// Package types provides type definitions for the data exchanged with the resume pipeline backend.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Toggle presets applied when a toggle has never been set.
const (
	DefaultUseTFIDF           = true
	DefaultUseBM25            = true
	DefaultUseEmbeddings      = false
	DefaultUseLLMJDClassifier = false
	DefaultUseLLMEditor       = true
)

// RunRequest is the body sent to the backend's /run endpoint.
// Toggles are pointers so the form can hold an unset state; call Materialize
// before transmitting.
type RunRequest struct {
	JobDescription     string `json:"job_description" validate:"notblank"`
	ProfileText        string `json:"profile_text" validate:"notblank"`
	CompanyName        string `json:"company_name,omitempty"`
	RoleTitle          string `json:"role_title,omitempty"`
	UseTFIDF           *bool  `json:"use_tfidf"`
	UseBM25            *bool  `json:"use_bm25"`
	UseEmbeddings      *bool  `json:"use_embeddings"`
	UseLLMJDClassifier *bool  `json:"use_llm_jd_classifier"`
	UseLLMEditor       *bool  `json:"use_llm_editor"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Materialize returns a copy of the request with every toggle set to a literal
// boolean. Unset toggles take their preset value rather than false.
func (r RunRequest) Materialize() RunRequest {
	out := r
	out.UseTFIDF = Bool(boolOr(r.UseTFIDF, DefaultUseTFIDF))
	out.UseBM25 = Bool(boolOr(r.UseBM25, DefaultUseBM25))
	out.UseEmbeddings = Bool(boolOr(r.UseEmbeddings, DefaultUseEmbeddings))
	out.UseLLMJDClassifier = Bool(boolOr(r.UseLLMJDClassifier, DefaultUseLLMJDClassifier))
	out.UseLLMEditor = Bool(boolOr(r.UseLLMEditor, DefaultUseLLMEditor))
	return out
}

// Clone returns a deep copy; toggle pointers are not shared with the receiver.
func (r RunRequest) Clone() RunRequest {
	out := r
	out.UseTFIDF = clonePtr(r.UseTFIDF)
	out.UseBM25 = clonePtr(r.UseBM25)
	out.UseEmbeddings = clonePtr(r.UseEmbeddings)
	out.UseLLMJDClassifier = clonePtr(r.UseLLMJDClassifier)
	out.UseLLMEditor = clonePtr(r.UseLLMEditor)
	return out
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func clonePtr(v *bool) *bool {
	if v == nil {
		return nil
	}
	return Bool(*v)
}

// PipelineResponse is the full result of one backend invocation.
type PipelineResponse struct {
	JD          JD          `json:"jd"`
	MatchReport MatchReport `json:"match_report"`
	EvidenceMap EvidenceMap `json:"evidence_map"`
	Generation  Generation  `json:"generation"`
	Validation  Validation  `json:"validation"`
}

// JD is the job description as parsed by the backend. Fields the backend adds
// beyond the named ones are kept in Extra and written back out unchanged.
type JD struct {
	CompanyName      string   `json:"company_name,omitempty"`
	RoleTitle        string   `json:"role_title,omitempty"`
	MustHaveSkills   []string `json:"must_have_skills,omitempty"`
	NiceToHaveSkills []string `json:"nice_to_have_skills,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var jdKnownFields = map[string]bool{
	"company_name":        true,
	"role_title":          true,
	"must_have_skills":    true,
	"nice_to_have_skills": true,
	"responsibilities":    true,
	"keywords":            true,
}

// jdFields avoids recursing into JD's own (Un)MarshalJSON.
type jdFields JD

// UnmarshalJSON decodes the named fields and collects the rest into Extra.
func (j *JD) UnmarshalJSON(data []byte) error {
	var known jdFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*j = JD(known)
	for key, value := range raw {
		if jdKnownFields[key] {
			continue
		}
		if j.Extra == nil {
			j.Extra = make(map[string]json.RawMessage)
		}
		j.Extra[key] = value
	}
	return nil
}

// MarshalJSON writes the named fields followed by Extra.
func (j JD) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(jdFields(j))
	if err != nil {
		return nil, err
	}
	if len(j.Extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(j.Extra)+len(jdKnownFields))
	for key, value := range j.Extra {
		merged[key] = value
	}
	var named map[string]json.RawMessage
	if err := json.Unmarshal(known, &named); err != nil {
		return nil, err
	}
	for key, value := range named {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// MatchReport holds the backend's scores, expressed as percentages.
type MatchReport struct {
	MatchScoreOverall   float64  `json:"match_score_overall"`
	MatchScoreMust      float64  `json:"match_score_must"`
	MatchScoreNice      float64  `json:"match_score_nice"`
	MatchedRequirements []string `json:"matched_requirements"`
	MissingRequirements []string `json:"missing_requirements"`
}

// ChunkScores are the per-method relevance scores of an evidence chunk.
type ChunkScores struct {
	Final float64 `json:"final"`
	TFIDF float64 `json:"tfidf"`
	BM25  float64 `json:"bm25"`
	Embed float64 `json:"embed"`
}

// EvidenceChunk is a snippet of the profile that supports a requirement.
type EvidenceChunk struct {
	ChunkID     string      `json:"chunk_id"`
	Section     string      `json:"section"`
	Text        string      `json:"text"`
	SkillsFound []string    `json:"skills_found"`
	Scores      ChunkScores `json:"scores"`
}

// EvidenceItem is the evidence collected for one requirement.
type EvidenceItem struct {
	Requirement string          `json:"requirement"`
	Matched     bool            `json:"matched"`
	Score       float64         `json:"score"`
	Chunks      []EvidenceChunk `json:"chunks"`
}

// EvidenceMap maps requirement labels to evidence while remembering the order
// in which the backend listed them.
type EvidenceMap struct {
	keys  []string
	items map[string]EvidenceItem
}

// NewEvidenceMap builds a map from keys and items given in order.
func NewEvidenceMap(keys []string, items []EvidenceItem) EvidenceMap {
	var m EvidenceMap
	for i, key := range keys {
		if i < len(items) {
			m.Set(key, items[i])
		}
	}
	return m
}

// Set adds or replaces an entry. New keys are appended to the order.
func (m *EvidenceMap) Set(key string, item EvidenceItem) {
	if m.items == nil {
		m.items = make(map[string]EvidenceItem)
	}
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = item
}

// Get returns the entry for key.
func (m EvidenceMap) Get(key string) (EvidenceItem, bool) {
	item, ok := m.items[key]
	return item, ok
}

// Len returns the number of entries.
func (m EvidenceMap) Len() int {
	return len(m.keys)
}

// Keys returns the requirement labels in document order.
func (m EvidenceMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Items returns the entries in document order.
func (m EvidenceMap) Items() []EvidenceItem {
	out := make([]EvidenceItem, 0, len(m.keys))
	for _, key := range m.keys {
		out = append(out, m.items[key])
	}
	return out
}

// UnmarshalJSON decodes a JSON object token by token so key order survives.
func (m *EvidenceMap) UnmarshalJSON(data []byte) error {
	*m = EvidenceMap{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("evidence_map: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("evidence_map: expected string key, got %v", tok)
		}
		var item EvidenceItem
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("evidence_map[%q]: %w", key, err)
		}
		m.Set(key, item)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON writes the entries as a JSON object in document order.
func (m EvidenceMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.items[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResumeBullet is a generated bullet grounded in evidence chunks.
type ResumeBullet struct {
	Text           string   `json:"text"`
	EvidenceChunks []string `json:"evidence_chunks"`
	SkillsUsed     []string `json:"skills_used,omitempty"`
}

// CoverLetter is the generated cover letter.
type CoverLetter struct {
	Text           string   `json:"text"`
	EvidenceChunks []string `json:"evidence_chunks"`
}

// Generation holds the generated outputs.
type Generation struct {
	ResumeBullets []ResumeBullet `json:"resume_bullets"`
	CoverLetter   CoverLetter    `json:"cover_letter"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// ValidationWarning is a structured warning produced by backend validation.
type ValidationWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Validation is the backend's verdict on its own output. OK is nil when the
// backend omitted the flag.
type Validation struct {
	OK       *bool               `json:"ok,omitempty"`
	Warnings []ValidationWarning `json:"warnings"`
}
