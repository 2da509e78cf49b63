package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mathviz/internal/domain"
)

// JobArchivePG implements domain.JobArchive. The live record store keeps jobs
// only for their TTL; terminal jobs are copied here so history survives
// expiry.
type JobArchivePG struct {
	pool *pgxpool.Pool
}

// NewJobArchive creates a job archive backed by PostgreSQL.
func NewJobArchive(pool *pgxpool.Pool) *JobArchivePG {
	return &JobArchivePG{pool: pool}
}

// SaveTerminal upserts a completed or failed job. Re-archiving the same job
// overwrites the previous row.
func (r *JobArchivePG) SaveTerminal(ctx context.Context, job *domain.Job) error {
	if job == nil {
		return fmt.Errorf("archive: nil job")
	}
	if !job.Status.Terminal() {
		return fmt.Errorf("archive: job %s is not terminal", job.ID)
	}

	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("archive: marshal params: %w", err)
	}

	var videoURL, thumbnailURL string
	if job.Result != nil {
		videoURL = job.Result.VideoURL
		thumbnailURL = job.Result.ThumbnailURL
	}

	query := `
INSERT INTO job_archive (id, status, params_json, video_url, thumbnail_url, error_message, edited_from, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    params_json = EXCLUDED.params_json,
    video_url = EXCLUDED.video_url,
    thumbnail_url = EXCLUDED.thumbnail_url,
    error_message = EXCLUDED.error_message,
    completed_at = EXCLUDED.completed_at;
`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		string(job.Status),
		paramsJSON,
		videoURL,
		thumbnailURL,
		job.Error,
		job.EditedFrom,
		job.CreatedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("archive: upsert job %s: %w", job.ID, err)
	}
	return nil
}

var _ domain.JobArchive = (*JobArchivePG)(nil)
