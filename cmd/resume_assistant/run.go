package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/observability"
	"github.com/jonathan/resume-assistant/internal/orchestrator"
	"github.com/jonathan/resume-assistant/internal/panels"
	"github.com/jonathan/resume-assistant/internal/types"
)

type runOptions struct {
	job        string
	profile    string
	profilePDF string
	company    string
	role       string
	sample     bool
	jsonOut    bool
	noColor    bool

	tfidf        bool
	bm25         bool
	embeddings   bool
	jdClassifier bool
	llmEditor    bool
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit one request to the backend and print the result panels",
		Long: `Builds a request from files and flags, sends it to the backend once and prints the
match summary, generated outputs and evidence map.

--sample starts from the demonstration job description and profile; --job, --profile and
--profile-pdf replace them. Toggle flags that are not given keep their presets.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd, opts, ro)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.job, "job", "j", "", "Path to the job description text file")
	f.StringVarP(&ro.profile, "profile", "p", "", "Path to the profile text file")
	f.StringVar(&ro.profilePDF, "profile-pdf", "", "Path to a profile PDF (text is extracted locally)")
	f.StringVar(&ro.company, "company", "", "Company name (optional)")
	f.StringVar(&ro.role, "role", "", "Role title (optional)")
	f.BoolVar(&ro.sample, "sample", false, "Start from the demonstration request")
	f.BoolVar(&ro.jsonOut, "json", false, "Print the final state as JSON")
	f.BoolVar(&ro.noColor, "no-color", false, "Disable colored output")

	f.BoolVar(&ro.tfidf, "tfidf", types.DefaultUseTFIDF, "Use TF-IDF retrieval")
	f.BoolVar(&ro.bm25, "bm25", types.DefaultUseBM25, "Use BM25 retrieval")
	f.BoolVar(&ro.embeddings, "embeddings", types.DefaultUseEmbeddings, "Use embedding retrieval")
	f.BoolVar(&ro.jdClassifier, "llm-jd-classifier", types.DefaultUseLLMJDClassifier, "Classify the job description with the LLM")
	f.BoolVar(&ro.llmEditor, "llm-editor", types.DefaultUseLLMEditor, "Polish outputs with the LLM editor")

	cmd.MarkFlagsMutuallyExclusive("profile", "profile-pdf")
	return cmd
}

func runSubmit(cmd *cobra.Command, opts *globalOptions, ro *runOptions) error {
	cfg, log, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	edit, err := ro.formEdit(cmd, log)
	if err != nil {
		return err
	}

	orch := orchestrator.New(newClient(cfg, log), log)
	if ro.sample {
		if err := orch.LoadSample(); err != nil {
			return err
		}
	}
	if err := orch.ModifyForm(edit); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done, err := orch.Submit(ctx)
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return errors.New("interrupted while waiting for the backend")
	}

	snap := orch.Snapshot()
	log.Debug("submission settled",
		zap.String("status", string(snap.Status)),
		zap.String("submission_id", snap.SubmissionID),
	)

	out := cmd.OutOrStdout()
	if ro.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
	} else {
		printer := observability.NewPrinter(out, ro.noColor)
		if snap.Error != "" {
			printer.PrintError(snap.Error)
		}
		printer.PrintPanels(panels.Build(snap.Result, snap.Loading, snap.Form))
	}

	if snap.Error != "" {
		return errors.New(snap.Error)
	}
	return nil
}

// formEdit reads the input files and returns the change to apply to the form.
// Files are read before the form is touched so a bad path leaves it unchanged.
func (ro *runOptions) formEdit(cmd *cobra.Command, log *zap.Logger) (func(types.RunRequest) types.RunRequest, error) {
	var job, profile string
	if ro.job != "" {
		text, meta, err := ingestion.ReadTextFile(ro.job)
		if err != nil {
			return nil, fmt.Errorf("job description: %w", err)
		}
		logInput(log, "job description loaded", meta)
		job = text
	}
	switch {
	case ro.profile != "":
		text, meta, err := ingestion.ReadTextFile(ro.profile)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		logInput(log, "profile loaded", meta)
		profile = text
	case ro.profilePDF != "":
		text, meta, err := ingestion.ExtractPDFFile(ro.profilePDF)
		if err != nil {
			return nil, err
		}
		logInput(log, "profile extracted from PDF", meta)
		profile = text
	}

	changed := cmd.Flags().Changed
	toggles := []struct {
		flag  string
		value bool
		field func(*types.RunRequest) **bool
	}{
		{"tfidf", ro.tfidf, func(r *types.RunRequest) **bool { return &r.UseTFIDF }},
		{"bm25", ro.bm25, func(r *types.RunRequest) **bool { return &r.UseBM25 }},
		{"embeddings", ro.embeddings, func(r *types.RunRequest) **bool { return &r.UseEmbeddings }},
		{"llm-jd-classifier", ro.jdClassifier, func(r *types.RunRequest) **bool { return &r.UseLLMJDClassifier }},
		{"llm-editor", ro.llmEditor, func(r *types.RunRequest) **bool { return &r.UseLLMEditor }},
	}

	return func(req types.RunRequest) types.RunRequest {
		if job != "" {
			req.JobDescription = job
		}
		if profile != "" {
			req.ProfileText = profile
		}
		if changed("company") {
			req.CompanyName = ro.company
		}
		if changed("role") {
			req.RoleTitle = ro.role
		}
		for _, t := range toggles {
			if changed(t.flag) {
				*t.field(&req) = types.Bool(t.value)
			}
		}
		return req
	}, nil
}

func logInput(log *zap.Logger, msg string, meta *ingestion.Metadata) {
	log.Debug(msg,
		zap.String("file", meta.Source),
		zap.String("kind", meta.Kind),
		zap.Int("pages", meta.Pages),
		zap.Int("chars", meta.Chars),
		zap.String("hash", meta.Hash),
	)
}
