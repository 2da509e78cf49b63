package worker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"mathviz/internal/domain"
	"mathviz/internal/engine"
	"mathviz/internal/infra"
	"mathviz/internal/render"
	"mathviz/internal/storage"
)

const defaultPollInterval = 1 * time.Second

// Config wires the worker's collaborators. Archive is optional; when nil,
// terminal jobs live only in the TTL'd record store.
type Config struct {
	Engine    *engine.Engine
	Queue     domain.JobQueue
	Renderer  render.Renderer
	Publisher storage.Publisher
	Archive   domain.JobArchive
	Logger    infra.Logger
	Poll      time.Duration
}

// Worker consumes job ids from the queue and drives each through render,
// publish and completion. A single worker processes jobs strictly one at a
// time; failures are contained to the job that raised them.
type Worker struct {
	engine    *engine.Engine
	queue     domain.JobQueue
	renderer  render.Renderer
	publisher storage.Publisher
	archive   domain.JobArchive
	logger    infra.Logger
	poll      time.Duration
}

func New(cfg Config) *Worker {
	poll := cfg.Poll
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Worker{
		engine:    cfg.Engine,
		queue:     cfg.Queue,
		renderer:  cfg.Renderer,
		publisher: cfg.Publisher,
		archive:   cfg.Archive,
		logger:    cfg.Logger,
		poll:      poll,
	}
}

// Run blocks until ctx is cancelled, dequeuing and processing jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		jobID, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if errors.Is(err, domain.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: dequeue failed")
			w.sleep(ctx, 5*time.Second)
			continue
		}

		w.handleJob(ctx, jobID)
	}
}

// handleJob runs one job end to end and never lets an error out; a panic in
// the render path fails the job instead of killing the loop.
func (w *Worker) handleJob(ctx context.Context, jobID string) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error().Str("job_id", jobID).Interface("panic", rec).Msg("worker: recovered from panic")
			if _, err := w.engine.Fail(ctx, jobID, fmt.Sprintf("internal error: %v", rec)); err != nil {
				w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: failed to record panic failure")
			}
			w.sleep(ctx, 5*time.Second)
		}
	}()

	job, err := w.engine.MarkProcessing(ctx, jobID)
	if err != nil {
		// The record expired or was already advanced; nothing to do.
		w.logger.Warn().Err(err).Str("job_id", jobID).Msg("worker: skipping job")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("scene_type", string(job.Params.SceneType)).Msg("worker: picked job")

	result, err := w.process(ctx, job)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		failed, failErr := w.engine.Fail(ctx, job.ID, err.Error())
		if failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("worker: failed to record failure")
			return
		}
		w.archiveTerminal(ctx, failed)
		return
	}

	completed, err := w.engine.Complete(ctx, job.ID, *result)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: failed to record completion")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("video_url", completed.Result.VideoURL).Msg("worker: job completed")
	w.archiveTerminal(ctx, completed)
}

func (w *Worker) process(ctx context.Context, job *domain.Job) (*domain.JobResult, error) {
	out, err := w.renderer.Render(ctx, job.ID, &job.Params)
	if err != nil {
		return nil, err
	}

	videoURL, err := w.publisher.Publish(ctx, out.VideoPath, path.Join("videos", job.ID, "video.mp4"), "video/mp4")
	if err != nil {
		// Publication failure is not fatal: fall back to the locally served
		// render output so the job can still complete.
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: video publish failed, using local reference")
		videoURL = "/outputs/" + job.ID + "/video.mp4"
	}

	result := &domain.JobResult{VideoURL: videoURL}
	if out.ThumbnailPath != "" {
		thumbURL, err := w.publisher.Publish(ctx, out.ThumbnailPath, path.Join("thumbnails", job.ID, "thumbnail.png"), "image/png")
		if err != nil {
			w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: thumbnail publish failed, using local reference")
			thumbURL = "/outputs/" + job.ID + "/thumbnail.png"
		}
		result.ThumbnailURL = thumbURL
	}
	return result, nil
}

func (w *Worker) archiveTerminal(ctx context.Context, job *domain.Job) {
	if w.archive == nil || job == nil {
		return
	}
	if err := w.archive.SaveTerminal(ctx, job); err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: archive write failed")
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
