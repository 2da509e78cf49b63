package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mathviz/internal/adapter/jobstore"
	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
)

type fakeInterpreter struct {
	interpret     func(description string) (*scenecfg.Params, error)
	interpretEdit func(original *scenecfg.Params, edit string) (*scenecfg.Params, error)
}

func (f *fakeInterpreter) Interpret(ctx context.Context, description string) (*scenecfg.Params, error) {
	if f.interpret == nil {
		return nil, errors.New("unexpected Interpret call")
	}
	return f.interpret(description)
}

func (f *fakeInterpreter) InterpretEdit(ctx context.Context, original *scenecfg.Params, edit string) (*scenecfg.Params, error) {
	if f.interpretEdit == nil {
		return nil, errors.New("unexpected InterpretEdit call")
	}
	return f.interpretEdit(original, edit)
}

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, id string) error {
	return domain.ErrStoreUnavailable
}

func (failingQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	return "", domain.ErrQueueEmpty
}

func newTestEngine(t *testing.T, interp *fakeInterpreter) (*Engine, *jobstore.MemoryStore, *jobstore.MemoryQueue) {
	t.Helper()
	store := jobstore.NewMemoryStore(time.Minute)
	queue := jobstore.NewMemoryQueue()
	if interp == nil {
		return New(store, queue, nil, zerolog.Nop()), store, queue
	}
	return New(store, queue, interp, zerolog.Nop()), store, queue
}

func functionGraphParams() *scenecfg.Params {
	return &scenecfg.Params{
		SceneType: scenecfg.SceneFunctionGraph,
		Function:  "sin(x)",
		XRange:    []float64{-6.28, 6.28},
	}
}

func TestCreateQueuesJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, store, queue := newTestEngine(t, nil)

	job, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("Create returned empty job id")
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("Status = %s, want queued", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
	if job.Result != nil || job.Error != "" {
		t.Fatal("fresh job must carry neither result nor error")
	}

	stored, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Params.Color != scenecfg.DefaultColor {
		t.Fatalf("stored Color = %q, want default applied", stored.Params.Color)
	}

	id, err := queue.Dequeue(ctx, 0)
	if err != nil {
		t.Fatalf("Dequeue returned error: %v", err)
	}
	if id != job.ID {
		t.Fatalf("queued id = %q, want %q", id, job.ID)
	}
}

func TestCreateRejectsInvalidParams(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, queue := newTestEngine(t, nil)

	params := &scenecfg.Params{SceneType: scenecfg.SceneFunctionGraph, Function: "sin(x)"}
	if _, err := eng.Create(ctx, params); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create error = %v, want ErrValidation", err)
	}

	if _, err := queue.Dequeue(ctx, 0); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Fatal("rejected job must not leave a queue entry")
	}
}

func TestCreateRollsBackOnEnqueueFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := jobstore.NewMemoryStore(time.Minute)
	eng := New(store, failingQueue{}, nil, zerolog.Nop())

	job, err := eng.Create(ctx, functionGraphParams())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Create error = %v, want ErrStoreUnavailable", err)
	}
	if job != nil {
		t.Fatal("Create returned a job despite enqueue failure")
	}
}

func TestCreateFromDescription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	interp := &fakeInterpreter{
		interpret: func(description string) (*scenecfg.Params, error) {
			return functionGraphParams(), nil
		},
	}
	eng, _, queue := newTestEngine(t, interp)

	job, err := eng.CreateFromDescription(ctx, "show me a sine wave")
	if err != nil {
		t.Fatalf("CreateFromDescription returned error: %v", err)
	}
	if job.Params.Function != "sin(x)" {
		t.Fatalf("Function = %q, want sin(x)", job.Params.Function)
	}
	if _, err := queue.Dequeue(ctx, 0); err != nil {
		t.Fatalf("interpreted job was not enqueued: %v", err)
	}
}

func TestCreateFromDescriptionWithoutInterpreter(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t, nil)
	if _, err := eng.CreateFromDescription(context.Background(), "anything"); !errors.Is(err, domain.ErrInterpretation) {
		t.Fatalf("error = %v, want ErrInterpretation", err)
	}
}

func TestEditCreatesNewJobWithBackReference(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var receivedOriginal *scenecfg.Params
	interp := &fakeInterpreter{
		interpretEdit: func(original *scenecfg.Params, edit string) (*scenecfg.Params, error) {
			receivedOriginal = original
			updated := *original
			updated.Color = "BLUE"
			return &updated, nil
		},
	}
	eng, store, queue := newTestEngine(t, interp)

	original, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := queue.Dequeue(ctx, 0); err != nil {
		t.Fatalf("drain queue: %v", err)
	}

	edited, err := eng.Edit(ctx, original.ID, "make it blue")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if edited.ID == original.ID {
		t.Fatal("Edit reused the original job id")
	}
	if edited.EditedFrom != original.ID {
		t.Fatalf("EditedFrom = %q, want %q", edited.EditedFrom, original.ID)
	}
	if edited.Params.Color != "BLUE" {
		t.Fatalf("Color = %q, want BLUE", edited.Params.Color)
	}
	if edited.Params.Function != "sin(x)" || len(edited.Params.XRange) != 2 {
		t.Fatalf("edit dropped original parameters: %+v", edited.Params)
	}
	if receivedOriginal == nil || receivedOriginal.ShowAxisLabels == nil {
		t.Fatal("interpreter did not receive defaulted original parameters")
	}

	// The original record is untouched.
	stored, err := store.Get(ctx, original.ID)
	if err != nil {
		t.Fatalf("Get(original) returned error: %v", err)
	}
	if stored.Params.Color != scenecfg.DefaultColor {
		t.Fatalf("original Color mutated to %q", stored.Params.Color)
	}

	id, err := queue.Dequeue(ctx, 0)
	if err != nil {
		t.Fatalf("edited job was not enqueued: %v", err)
	}
	if id != edited.ID {
		t.Fatalf("queued id = %q, want %q", id, edited.ID)
	}
}

func TestEditUnknownJob(t *testing.T) {
	t.Parallel()
	interp := &fakeInterpreter{}
	eng, _, _ := newTestEngine(t, interp)
	if _, err := eng.Edit(context.Background(), "missing", "make it blue"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Edit error = %v, want ErrNotFound", err)
	}
}

func TestEditAllowsSceneTypeSwitch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	interp := &fakeInterpreter{
		interpretEdit: func(original *scenecfg.Params, edit string) (*scenecfg.Params, error) {
			return &scenecfg.Params{
				SceneType:  scenecfg.SceneBarChart,
				Categories: []string{"A", "B"},
				Values:     []float64{1, 2},
			}, nil
		},
	}
	eng, _, queue := newTestEngine(t, interp)

	original, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := queue.Dequeue(ctx, 0); err != nil {
		t.Fatalf("drain queue: %v", err)
	}

	edited, err := eng.Edit(ctx, original.ID, "turn it into a bar chart")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if edited.Params.SceneType != scenecfg.SceneBarChart {
		t.Fatalf("SceneType = %q, want bar_chart", edited.Params.SceneType)
	}
}

func TestEditValidatesInterpretedResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	interp := &fakeInterpreter{
		interpretEdit: func(original *scenecfg.Params, edit string) (*scenecfg.Params, error) {
			// Result missing required values for its scene type.
			return &scenecfg.Params{SceneType: scenecfg.SceneBarChart, Categories: []string{"A"}}, nil
		},
	}
	eng, _, queue := newTestEngine(t, interp)

	original, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := queue.Dequeue(ctx, 0); err != nil {
		t.Fatalf("drain queue: %v", err)
	}

	if _, err := eng.Edit(ctx, original.ID, "bar chart please"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Edit error = %v, want ErrValidation", err)
	}
	if _, err := queue.Dequeue(ctx, 0); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Fatal("invalid edit left a queue entry")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil)

	job, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	processing, err := eng.MarkProcessing(ctx, job.ID)
	if err != nil {
		t.Fatalf("MarkProcessing returned error: %v", err)
	}
	if processing.Status != domain.JobStatusProcessing {
		t.Fatalf("Status = %s, want processing", processing.Status)
	}
	if processing.Result != nil || processing.Error != "" {
		t.Fatal("non-terminal job must carry neither result nor error")
	}

	completed, err := eng.Complete(ctx, job.ID, domain.JobResult{VideoURL: "https://cdn.example.com/v.mp4"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completed.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, want completed", completed.Status)
	}
	if completed.Result == nil || completed.Result.VideoURL == "" {
		t.Fatal("completed job missing result")
	}
	if completed.CompletedAt == nil {
		t.Fatal("completed job missing CompletedAt")
	}
	if completed.Error != "" {
		t.Fatal("completed job must not carry an error")
	}

	// Terminal status is immutable.
	if _, err := eng.Fail(ctx, job.ID, "too late"); err == nil {
		t.Fatal("Fail succeeded on a completed job")
	}
	if _, err := eng.MarkProcessing(ctx, job.ID); err == nil {
		t.Fatal("MarkProcessing succeeded on a completed job")
	}
}

func TestFailRecordsCause(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil)

	job, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := eng.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing returned error: %v", err)
	}

	failed, err := eng.Fail(ctx, job.ID, "manim exited with status 1")
	if err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if failed.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s, want failed", failed.Status)
	}
	if failed.Error != "manim exited with status 1" {
		t.Fatalf("Error = %q", failed.Error)
	}
	if failed.Result != nil {
		t.Fatal("failed job must not carry a result")
	}
}

func TestFailDefaultsCause(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil)

	job, err := eng.Create(ctx, functionGraphParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	failed, err := eng.Fail(ctx, job.ID, "")
	if err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if failed.Error == "" {
		t.Fatal("failed job carries an empty error string")
	}
}

func TestMarkProcessingExpiredRecord(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t, nil)
	if _, err := eng.MarkProcessing(context.Background(), "gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MarkProcessing error = %v, want ErrNotFound", err)
	}
}
