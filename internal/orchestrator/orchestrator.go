// Package orchestrator runs the submission state machine: it validates the
// form, issues one backend call at a time and publishes the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-assistant/internal/client"
	"github.com/jonathan/resume-assistant/internal/form"
	"github.com/jonathan/resume-assistant/internal/types"
)

// Status is the externally visible state of the orchestrator.
type Status string

// Submission states.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// User-facing messages.
const (
	ValidationMessage    = "Please provide both a job description and your profile text."
	FallbackErrorMessage = "Failed to reach the backend."
)

// ErrInFlight is returned for any action attempted while a submission is loading.
var ErrInFlight = errors.New("a submission is already in progress")

// ErrEmptyResponse is recorded when a Runner returns neither a result nor an error.
var ErrEmptyResponse = errors.New("backend returned an empty response")

// Runner executes one pipeline call. *client.Client satisfies it.
type Runner interface {
	RunPipeline(ctx context.Context, req types.RunRequest) (*types.PipelineResponse, error)
}

// Snapshot is an immutable view of the orchestrator at one instant. Result and
// Error are never both set.
type Snapshot struct {
	Status       Status                  `json:"status"`
	Loading      bool                    `json:"loading"`
	Form         types.RunRequest        `json:"form"`
	Result       *types.PipelineResponse `json:"result,omitempty"`
	Error        string                  `json:"error,omitempty"`
	SubmissionID string                  `json:"submission_id,omitempty"`
	StartedAt    *time.Time              `json:"started_at,omitempty"`
	FinishedAt   *time.Time              `json:"finished_at,omitempty"`
}

// Orchestrator owns the form and the (loading, result, error) triple.
type Orchestrator struct {
	runner   Runner
	log      *zap.Logger
	validate *validator.Validate
	inflight *semaphore.Weighted
	now      func() time.Time

	mu           sync.Mutex
	form         *form.Controller
	loading      bool
	result       *types.PipelineResponse
	errMsg       string
	submissionID string
	startedAt    time.Time
	finishedAt   time.Time
	subs         map[int]chan Snapshot
	nextSub      int
}

// New creates an orchestrator in the idle state holding the default form.
func New(runner Runner, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		runner:   runner,
		log:      log,
		validate: newValidator(),
		inflight: semaphore.NewWeighted(1),
		now:      time.Now,
		form:     form.NewController(),
		subs:     make(map[int]chan Snapshot),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Submit validates the current form and, when it passes, starts the backend
// call. The returned channel is closed once the submission has settled; on a
// validation failure it is already closed. The call is detached from ctx's
// cancellation so leaving the page does not abort it.
func (o *Orchestrator) Submit(ctx context.Context) (<-chan struct{}, error) {
	if !o.inflight.TryAcquire(1) {
		return nil, ErrInFlight
	}

	done := make(chan struct{})

	o.mu.Lock()
	payload := o.form.Value()
	if err := o.validate.Struct(payload); err != nil {
		o.errMsg = ValidationMessage
		o.result = nil
		o.submissionID = ""
		o.publishLocked()
		o.mu.Unlock()
		o.inflight.Release(1)
		o.log.Info("submission rejected", zap.String("reason", "missing job description or profile text"))
		close(done)
		return done, nil
	}

	id := uuid.NewString()
	o.errMsg = ""
	o.result = nil
	o.loading = true
	o.submissionID = id
	o.startedAt = o.now()
	o.finishedAt = time.Time{}
	o.publishLocked()
	o.mu.Unlock()

	payload = payload.Materialize()
	o.log.Info("submission started",
		zap.String("submission_id", id),
		zap.Bool("use_tfidf", *payload.UseTFIDF),
		zap.Bool("use_bm25", *payload.UseBM25),
		zap.Bool("use_embeddings", *payload.UseEmbeddings),
		zap.Bool("use_llm_jd_classifier", *payload.UseLLMJDClassifier),
		zap.Bool("use_llm_editor", *payload.UseLLMEditor),
	)

	callCtx := client.WithRequestID(context.WithoutCancel(ctx), id)
	go o.run(callCtx, id, payload, done)
	return done, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, payload types.RunRequest, done chan struct{}) {
	var (
		resp *types.PipelineResponse
		err  error
	)
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("pipeline call panicked: %v", r)
		}
		o.settle(id, resp, err)
		o.inflight.Release(1)
		close(done)
	}()
	resp, err = o.runner.RunPipeline(ctx, payload)
}

func (o *Orchestrator) settle(id string, resp *types.PipelineResponse, err error) {
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.loading = false
	o.finishedAt = o.now()
	elapsed := o.finishedAt.Sub(o.startedAt)

	if err != nil {
		o.result = nil
		o.errMsg = messageFor(err)
		o.log.Warn("submission failed",
			zap.String("submission_id", id),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		o.result = resp
		o.errMsg = ""
		o.log.Info("submission succeeded",
			zap.String("submission_id", id),
			zap.Duration("elapsed", elapsed),
			zap.Int("evidence_items", resp.EvidenceMap.Len()),
			zap.Int("resume_bullets", len(resp.Generation.ResumeBullets)),
		)
	}
	o.publishLocked()
}

// messageFor picks the error's own message when it carries one.
func messageFor(err error) string {
	if msg := client.Message(err); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:       o.statusLocked(),
		Loading:      o.loading,
		Form:         o.form.Value(),
		Result:       o.result,
		Error:        o.errMsg,
		SubmissionID: o.submissionID,
	}
	if !o.startedAt.IsZero() {
		t := o.startedAt
		snap.StartedAt = &t
	}
	if !o.finishedAt.IsZero() {
		t := o.finishedAt
		snap.FinishedAt = &t
	}
	return snap
}

func (o *Orchestrator) statusLocked() Status {
	switch {
	case o.loading:
		return StatusLoading
	case o.errMsg != "":
		return StatusError
	case o.result != nil:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// Form returns a copy of the current form value.
func (o *Orchestrator) Form() types.RunRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.form.Value()
}

// UpdateForm replaces the whole form value.
func (o *Orchestrator) UpdateForm(next types.RunRequest) error {
	return o.editForm(func(c *form.Controller) { c.Set(next) })
}

// ModifyForm applies edit to a copy of the current form and stores the result
// in one step.
func (o *Orchestrator) ModifyForm(edit func(types.RunRequest) types.RunRequest) error {
	return o.editForm(func(c *form.Controller) { c.Set(edit(c.Value())) })
}

// LoadSample fills the form with demonstration text.
func (o *Orchestrator) LoadSample() error {
	return o.editForm((*form.Controller).LoadSample)
}

// Reset restores the default form.
func (o *Orchestrator) Reset() error {
	return o.editForm((*form.Controller).Reset)
}

func (o *Orchestrator) editForm(edit func(*form.Controller)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loading {
		return ErrInFlight
	}
	edit(o.form)
	o.publishLocked()
	return nil
}

// Subscribe returns a channel that receives the latest snapshot after every
// transition. Slow readers only see the most recent one. Call the returned
// function to unsubscribe.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan Snapshot, 1)
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// publishLocked delivers the current snapshot to every subscriber without
// blocking. Must be called with o.mu held so deliveries keep transition order.
func (o *Orchestrator) publishLocked() {
	if len(o.subs) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for _, ch := range o.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
