package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/client"
)

const backendResponse = `{
	"jd": {"company_name": "ExampleCorp", "role_title": "Backend Engineer"},
	"match_report": {
		"match_score_overall": 72.5,
		"match_score_must": 80,
		"match_score_nice": 50,
		"matched_requirements": ["python"],
		"missing_requirements": ["kubernetes"]
	},
	"evidence_map": {
		"python": {"requirement": "python", "matched": true, "score": 0.8, "chunks": [
			{"chunk_id": "c1", "section": "Experience", "text": "Built FastAPI services", "skills_found": ["python"],
			 "scores": {"final": 0.8, "tfidf": 0.5, "bm25": 0.7, "embed": 0}}
		]}
	},
	"generation": {
		"resume_bullets": [{"text": "Built APIs", "evidence_chunks": ["c1"]}],
		"cover_letter": {"text": "Dear team", "evidence_chunks": ["c1"]}
	},
	"validation": {"ok": true, "warnings": []}
}`

// fakeBackend records /run bodies and answers with a fixed status and body.
type fakeBackend struct {
	mu     sync.Mutex
	bodies []map[string]any
	status int
	body   string
}

func newFakeBackend(t *testing.T, status int, body string) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.HealthPath:
			w.WriteHeader(fb.status)
		case client.RunPath:
			raw, _ := io.ReadAll(r.Body)
			var got map[string]any
			_ = json.Unmarshal(raw, &got)
			fb.mu.Lock()
			fb.bodies = append(fb.bodies, got)
			fb.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fb.status)
			_, _ = w.Write([]byte(fb.body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) requests() []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.bodies...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("API_BASE", "")
	t.Setenv("LOG_JSON", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
