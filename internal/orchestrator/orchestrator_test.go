package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/client"
	"github.com/jonathan/resume-assistant/internal/form"
	"github.com/jonathan/resume-assistant/internal/types"
)

// fakeRunner blocks every call until release is closed (when non-nil) and
// records what it was asked to run.
type fakeRunner struct {
	mu       sync.Mutex
	calls    int32
	requests []types.RunRequest
	ctxErr   []error
	ids      []string

	release chan struct{}
	resp    *types.PipelineResponse
	err     error
}

func (f *fakeRunner) RunPipeline(ctx context.Context, req types.RunRequest) (*types.PipelineResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.ctxErr = append(f.ctxErr, ctx.Err())
	f.mu.Unlock()
	return f.resp, f.err
}

func sampleResponse() *types.PipelineResponse {
	return &types.PipelineResponse{
		JD:          types.JD{CompanyName: "ExampleCorp"},
		MatchReport: types.MatchReport{MatchScoreOverall: 72},
		EvidenceMap: types.NewEvidenceMap([]string{"Python"}, []types.EvidenceItem{{Requirement: "Python", Matched: true, Score: 0.8}}),
	}
}

func filledForm() types.RunRequest {
	req := form.Default()
	req.JobDescription = "Backend role"
	req.ProfileText = "Built APIs"
	return req
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not settle")
	}
}

func TestNew_StartsIdleWithDefaultForm(t *testing.T) {
	o := New(&fakeRunner{}, nil)

	snap := o.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Error)
	assert.Equal(t, form.Default(), snap.Form)
}

func TestSubmit_ValidationFailureDoesNotCallBackend(t *testing.T) {
	tests := []struct {
		name string
		jd   string
		prof string
	}{
		{"both empty", "", ""},
		{"whitespace job description", "   \n\t", "profile"},
		{"whitespace profile", "job", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{resp: sampleResponse()}
			o := New(runner, nil)
			req := form.Default()
			req.JobDescription = tt.jd
			req.ProfileText = tt.prof
			require.NoError(t, o.UpdateForm(req))

			done, err := o.Submit(context.Background())
			require.NoError(t, err)
			waitDone(t, done)

			snap := o.Snapshot()
			assert.Equal(t, StatusError, snap.Status)
			assert.Equal(t, ValidationMessage, snap.Error)
			assert.False(t, snap.Loading)
			assert.Equal(t, int32(0), atomic.LoadInt32(&runner.calls))
		})
	}
}

func TestSubmit_ValidationFailureClearsPreviousResult(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse()}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))
	done, err := o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)
	require.NotNil(t, o.Snapshot().Result)

	require.NoError(t, o.Reset())
	done, err = o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	snap := o.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Equal(t, ValidationMessage, snap.Error)
}

func TestSubmit_Success(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse()}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	done, err := o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	snap := o.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Empty(t, snap.Error)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "ExampleCorp", snap.Result.JD.CompanyName)
	assert.NotEmpty(t, snap.SubmissionID)
	require.NotNil(t, snap.StartedAt)
	require.NotNil(t, snap.FinishedAt)
	assert.False(t, snap.FinishedAt.Before(*snap.StartedAt))
}

func TestSubmit_SendsMaterializedToggles(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse()}
	o := New(runner, nil)
	req := filledForm()
	req.UseTFIDF = nil
	req.UseEmbeddings = nil
	req.UseLLMEditor = types.Bool(false)
	require.NoError(t, o.UpdateForm(req))

	done, err := o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	require.Len(t, runner.requests, 1)
	sent := runner.requests[0]
	require.NotNil(t, sent.UseTFIDF)
	require.NotNil(t, sent.UseEmbeddings)
	assert.Equal(t, types.DefaultUseTFIDF, *sent.UseTFIDF)
	assert.Equal(t, types.DefaultUseEmbeddings, *sent.UseEmbeddings)
	assert.False(t, *sent.UseLLMEditor)

	// the form itself keeps its unset toggles
	assert.Nil(t, o.Form().UseTFIDF)
}

func TestSubmit_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", &client.Error{StatusCode: 429, Message: "rate limited"}, "rate limited"},
		{"status only", &client.Error{StatusCode: 500, Message: client.StatusMessage(500)}, "Request failed with status 500"},
		{"transport failure", &client.Error{Cause: errors.New("connection refused")}, FallbackErrorMessage},
		{"plain error", errors.New("boom"), FallbackErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&fakeRunner{err: tt.err}, nil)
			require.NoError(t, o.UpdateForm(filledForm()))

			done, err := o.Submit(context.Background())
			require.NoError(t, err)
			waitDone(t, done)

			snap := o.Snapshot()
			assert.Equal(t, StatusError, snap.Status)
			assert.Equal(t, tt.want, snap.Error)
			assert.Nil(t, snap.Result)
			assert.False(t, snap.Loading)
		})
	}
}

func TestSubmit_NilResponseSettlesAsError(t *testing.T) {
	o := New(&fakeRunner{}, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	done, err := o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	snap := o.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, FallbackErrorMessage, snap.Error)
	assert.Nil(t, snap.Result)

	// the in-flight slot was released
	done, err = o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)
}

func TestSubmit_ErrorAfterSuccessClearsResult(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse()}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))
	done, _ := o.Submit(context.Background())
	waitDone(t, done)

	runner.resp = nil
	runner.err = &client.Error{StatusCode: 502, Message: "bad gateway"}
	done, err := o.Submit(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	snap := o.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Equal(t, "bad gateway", snap.Error)
}

func TestSubmit_WhileLoadingMakesExactlyOneCall(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse(), release: make(chan struct{})}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	done, err := o.Submit(context.Background())
	require.NoError(t, err)

	loading := o.Snapshot()
	assert.Equal(t, StatusLoading, loading.Status)
	assert.True(t, loading.Loading)
	assert.Nil(t, loading.Result)
	assert.Empty(t, loading.Error)

	for i := 0; i < 5; i++ {
		_, err := o.Submit(context.Background())
		assert.ErrorIs(t, err, ErrInFlight)
	}
	assert.Equal(t, loading.SubmissionID, o.Snapshot().SubmissionID)

	close(runner.release)
	waitDone(t, done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
}

func TestSubmit_ConcurrentCallersStartOneSubmission(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse(), release: make(chan struct{})}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	var (
		wg       sync.WaitGroup
		accepted int32
		rejected int32
		dones    = make(chan (<-chan struct{}), 10)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := o.Submit(context.Background())
			if errors.Is(err, ErrInFlight) {
				atomic.AddInt32(&rejected, 1)
				return
			}
			atomic.AddInt32(&accepted, 1)
			dones <- done
		}()
	}
	wg.Wait()
	close(runner.release)
	close(dones)
	for done := range dones {
		waitDone(t, done)
	}

	assert.Equal(t, int32(1), accepted)
	assert.Equal(t, int32(9), rejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
}

func TestFormEditsRejectedWhileLoading(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse(), release: make(chan struct{})}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	done, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, o.UpdateForm(form.Default()), ErrInFlight)
	assert.ErrorIs(t, o.LoadSample(), ErrInFlight)
	assert.ErrorIs(t, o.Reset(), ErrInFlight)
	assert.Equal(t, filledForm(), o.Form())

	close(runner.release)
	waitDone(t, done)
	assert.NoError(t, o.Reset())
}

func TestSubmit_CallerCancellationDoesNotAbortCall(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse(), release: make(chan struct{})}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	ctx, cancel := context.WithCancel(context.Background())
	done, err := o.Submit(ctx)
	require.NoError(t, err)
	cancel()
	close(runner.release)
	waitDone(t, done)

	require.Len(t, runner.ctxErr, 1)
	assert.NoError(t, runner.ctxErr[0])
	assert.Equal(t, StatusSuccess, o.Snapshot().Status)
}

func TestLoadSampleAndReset(t *testing.T) {
	o := New(&fakeRunner{}, nil)

	req := form.Default()
	req.UseBM25 = types.Bool(false)
	require.NoError(t, o.UpdateForm(req))
	require.NoError(t, o.LoadSample())

	got := o.Form()
	assert.Equal(t, form.SampleJobDescription, got.JobDescription)
	assert.Equal(t, form.SampleProfile, got.ProfileText)
	assert.False(t, *got.UseBM25)

	require.NoError(t, o.Reset())
	assert.Equal(t, form.Default(), o.Form())
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	runner := &fakeRunner{resp: sampleResponse(), release: make(chan struct{})}
	o := New(runner, nil)
	require.NoError(t, o.UpdateForm(filledForm()))

	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()

	done, err := o.Submit(context.Background())
	require.NoError(t, err)

	select {
	case snap := <-updates:
		assert.Equal(t, StatusLoading, snap.Status)
	case <-time.After(time.Second):
		t.Fatal("no loading snapshot")
	}

	close(runner.release)
	waitDone(t, done)

	select {
	case snap := <-updates:
		assert.Equal(t, StatusSuccess, snap.Status)
		assert.NotNil(t, snap.Result)
	case <-time.After(time.Second):
		t.Fatal("no settled snapshot")
	}
}

func TestSubscribe_SlowReaderSeesLatest(t *testing.T) {
	o := New(&fakeRunner{}, nil)
	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()

	require.NoError(t, o.LoadSample())
	require.NoError(t, o.Reset())

	snap := <-updates
	assert.Equal(t, form.Default(), snap.Form)
	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra snapshot: %+v", extra)
	default:
	}
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	o := New(&fakeRunner{}, nil)
	updates, unsubscribe := o.Subscribe()
	unsubscribe()
	unsubscribe()

	require.NoError(t, o.LoadSample())
	select {
	case <-updates:
		t.Fatal("received snapshot after unsubscribe")
	default:
	}
}

func TestModifyForm(t *testing.T) {
	o := New(&fakeRunner{}, nil)

	err := o.ModifyForm(func(req types.RunRequest) types.RunRequest {
		req.ProfileText = "from pdf"
		return req
	})
	require.NoError(t, err)

	got := o.Form()
	assert.Equal(t, "from pdf", got.ProfileText)
	assert.Equal(t, form.Default().UseBM25, got.UseBM25)
}
