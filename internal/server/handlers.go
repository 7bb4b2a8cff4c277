package server

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/types"
)

// Form field names shared with the page template.
const (
	fieldJobDescription = "job_description"
	fieldProfileText    = "profile_text"
	fieldCompanyName    = "company_name"
	fieldRoleTitle      = "role_title"
	fieldProfilePDF     = "profile_pdf"
)

// backendHealthTimeout bounds GET /health/backend.
const backendHealthTimeout = 10 * time.Second

// handleIndex renders the page for the current state.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	snap := s.orch.Snapshot()
	w.Header().Set("Cache-Control", "no-store")
	if err := s.pages.render(w, buildPage(snap, s.backend.BaseURL())); err != nil {
		s.log.Error("failed to render page", zap.Error(err))
	}
}

// handleSubmit stores the posted form and starts a submission.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "form", Message: "could not parse form"})
		return
	}
	if err := s.orch.UpdateForm(decodeRunRequest(r.PostForm)); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.orch.Submit(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, http.StatusAccepted)
}

// handleSample fills the form with demonstration text.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.LoadSample(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, http.StatusOK)
}

// handleReset restores the default form.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Reset(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, http.StatusOK)
}

// handleProfilePDF replaces the profile text with text extracted from an
// uploaded PDF.
func (s *Server) handleProfilePDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ingestion.MaxPDFSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		s.fail(w, r, &ErrValidation{Field: fieldProfilePDF, Message: "Upload a PDF of at most 10 MB."})
		return
	}
	file, header, err := r.FormFile(fieldProfilePDF)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: fieldProfilePDF, Message: "Choose a PDF file to upload."})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: fieldProfilePDF, Message: "Could not read the uploaded file."})
		return
	}

	text, meta, err := ingestion.ExtractPDFBytes(data, header.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	err = s.orch.ModifyForm(func(req types.RunRequest) types.RunRequest {
		req.ProfileText = text
		return req
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info("profile extracted from PDF",
		zap.String("file", meta.Source),
		zap.Int("pages", meta.Pages),
		zap.Int("chars", meta.Chars),
		zap.String("hash", meta.Hash),
	)
	s.done(w, r, http.StatusOK)
}

// handleState returns the current snapshot as JSON.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.orch.Snapshot())
}

// handleEvents streams a "state" event for the current snapshot and for every
// transition after it.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	updates, unsubscribe := s.orch.Subscribe()
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent("state", s.orch.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case snap := <-updates:
			if err := sse.WriteEvent("state", snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WritePing(); err != nil {
				return
			}
		}
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBackendHealth checks that the pipeline backend answers.
func (s *Server) handleBackendHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendHealthTimeout)
	defer cancel()

	if err := s.backend.Health(ctx); err != nil {
		s.log.Warn("backend health check failed", zap.Error(err))
		s.jsonResponse(w, http.StatusBadGateway, map[string]string{
			"status":  "unavailable",
			"backend": s.backend.BaseURL(),
			"error":   userMessage(err),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.backend.BaseURL(),
	})
}

// done finishes a form action: JSON clients get the snapshot, browsers are
// sent back to the page.
func (s *Server) done(w http.ResponseWriter, r *http.Request, status int) {
	if wantsJSON(r) {
		s.jsonResponse(w, status, s.orch.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// toggleFields maps form field names to the request's toggles.
var toggleFields = []struct {
	name  string
	label string
	field func(*types.RunRequest) **bool
}{
	{"use_tfidf", "TF-IDF", func(r *types.RunRequest) **bool { return &r.UseTFIDF }},
	{"use_bm25", "BM25", func(r *types.RunRequest) **bool { return &r.UseBM25 }},
	{"use_embeddings", "Embeddings", func(r *types.RunRequest) **bool { return &r.UseEmbeddings }},
	{"use_llm_jd_classifier", "LLM JD classifier", func(r *types.RunRequest) **bool { return &r.UseLLMJDClassifier }},
	{"use_llm_editor", "LLM editor", func(r *types.RunRequest) **bool { return &r.UseLLMEditor }},
}

// decodeRunRequest reads the page form. Each toggle is posted as a hidden
// "false" followed by the checkbox, so the last value wins; a toggle that is
// absent altogether stays unset.
func decodeRunRequest(form url.Values) types.RunRequest {
	req := types.RunRequest{
		JobDescription: form.Get(fieldJobDescription),
		ProfileText:    form.Get(fieldProfileText),
		CompanyName:    strings.TrimSpace(form.Get(fieldCompanyName)),
		RoleTitle:      strings.TrimSpace(form.Get(fieldRoleTitle)),
	}
	for _, t := range toggleFields {
		values := form[t.name]
		if len(values) == 0 {
			continue
		}
		*t.field(&req) = types.Bool(parseToggle(values[len(values)-1]))
	}
	return req
}

func parseToggle(v string) bool {
	if strings.EqualFold(v, "on") {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
