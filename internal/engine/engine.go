package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
	"mathviz/internal/infra"
	"mathviz/internal/providers/interpret"
)

// Engine owns the job lifecycle: it validates parameters, creates and
// enqueues records, and applies the forward-only status transitions the
// worker drives. Every mutation re-reads the stored record first; the store
// resolves concurrent writers last-writer-wins.
type Engine struct {
	store       domain.JobStore
	queue       domain.JobQueue
	interpreter interpret.Interpreter
	logger      infra.Logger
}

// New constructs an Engine. The interpreter may be nil when no natural
// language backend is configured; description-driven operations then fail
// with domain.ErrInterpretation.
func New(store domain.JobStore, queue domain.JobQueue, interpreter interpret.Interpreter, logger infra.Logger) *Engine {
	return &Engine{store: store, queue: queue, interpreter: interpreter, logger: logger}
}

// Create validates params, persists a queued job and enqueues its id. On an
// enqueue failure the stored record is rolled back so no partial state is
// left behind.
func (e *Engine) Create(ctx context.Context, params *scenecfg.Params) (*domain.Job, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: parameters are required", domain.ErrValidation)
	}
	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusQueued,
		Params:    *params,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.submit(ctx, job); err != nil {
		return nil, err
	}
	e.logger.Info().Str("job_id", job.ID).Str("scene_type", string(job.Params.SceneType)).Msg("engine: job created")
	return job, nil
}

// CreateFromDescription interprets a natural language description and
// creates a job from the resulting parameters.
func (e *Engine) CreateFromDescription(ctx context.Context, description string) (*domain.Job, error) {
	if e.interpreter == nil {
		return nil, fmt.Errorf("%w: no interpreter configured", domain.ErrInterpretation)
	}
	params, err := e.interpreter.Interpret(ctx, description)
	if err != nil {
		return nil, err
	}
	return e.Create(ctx, params)
}

// Edit produces a brand-new queued job from an existing one. The original
// parameters are reconstructed with their per-scene-type defaults, handed to
// the interpreter together with the edit text, and the result is validated
// under its (possibly changed) scene type. The original job is not mutated.
func (e *Engine) Edit(ctx context.Context, originalID, editDescription string) (*domain.Job, error) {
	if e.interpreter == nil {
		return nil, fmt.Errorf("%w: no interpreter configured", domain.ErrInterpretation)
	}
	original, err := e.store.Get(ctx, originalID)
	if err != nil {
		return nil, err
	}

	base := original.Params
	base.Normalize()

	updated, err := e.interpreter.InterpretEdit(ctx, &base, editDescription)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: empty interpretation result", domain.ErrInterpretation)
	}
	// Scene-type switching via edit is permitted: validation follows the
	// interpreted type, falling back to the original's when absent.
	if updated.SceneType == "" {
		updated.SceneType = base.SceneType
	}
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	job := &domain.Job{
		ID:         uuid.NewString(),
		Status:     domain.JobStatusQueued,
		Params:     *updated,
		CreatedAt:  time.Now().UTC(),
		EditedFrom: originalID,
	}
	if err := e.submit(ctx, job); err != nil {
		return nil, err
	}
	e.logger.Info().Str("job_id", job.ID).Str("edited_from", originalID).Msg("engine: edit job created")
	return job, nil
}

// Get returns the stored record for id.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Job, error) {
	return e.store.Get(ctx, id)
}

// MarkProcessing claims a dequeued job for rendering. It returns the updated
// record, or an error when the record expired or already advanced; the
// worker treats that as a skip, not a failure.
func (e *Engine) MarkProcessing(ctx context.Context, id string) (*domain.Job, error) {
	return e.transition(ctx, id, domain.JobStatusProcessing, func(job *domain.Job) {})
}

// Complete moves a processing job to its terminal success state, recording
// the artifact references and the completion timestamp.
func (e *Engine) Complete(ctx context.Context, id string, result domain.JobResult) (*domain.Job, error) {
	if result.VideoURL == "" {
		return nil, fmt.Errorf("%w: completed job requires a video reference", domain.ErrValidation)
	}
	return e.transition(ctx, id, domain.JobStatusCompleted, func(job *domain.Job) {
		now := time.Now().UTC()
		job.CompletedAt = &now
		job.Result = &domain.JobResult{VideoURL: result.VideoURL, ThumbnailURL: result.ThumbnailURL}
		job.Error = ""
	})
}

// Fail moves a job to its terminal failure state with a non-empty cause.
func (e *Engine) Fail(ctx context.Context, id, cause string) (*domain.Job, error) {
	if cause == "" {
		cause = "rendering failed"
	}
	return e.transition(ctx, id, domain.JobStatusFailed, func(job *domain.Job) {
		job.Error = cause
		job.Result = nil
	})
}

func (e *Engine) submit(ctx context.Context, job *domain.Job) error {
	if err := e.store.Put(ctx, job); err != nil {
		return err
	}
	if err := e.queue.Enqueue(ctx, job.ID); err != nil {
		if delErr := e.store.Delete(ctx, job.ID); delErr != nil {
			e.logger.Error().Err(delErr).Str("job_id", job.ID).Msg("engine: rollback after enqueue failure failed")
		}
		return err
	}
	return nil
}

func (e *Engine) transition(ctx context.Context, id string, next domain.JobStatus, apply func(*domain.Job)) (*domain.Job, error) {
	job, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransition(next) {
		return nil, fmt.Errorf("job %s is %s, cannot move to %s", id, job.Status, next)
	}
	job.Status = next
	apply(job)
	if err := e.store.Put(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}
