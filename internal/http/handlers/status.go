package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mathviz/internal/domain"
)

type statusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	VideoURL     string     `json:"video_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Error        string     `json:"error,omitempty"`
	EditedFrom   string     `json:"edited_from,omitempty"`
}

var statusMessages = map[domain.JobStatus]string{
	domain.JobStatusQueued:     "Job is queued and waiting to be processed",
	domain.JobStatusProcessing: "Job is currently being rendered",
	domain.JobStatusCompleted:  "Rendering completed successfully",
	domain.JobStatusFailed:     "Rendering failed",
}

func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Engine.Get(r.Context(), jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}

	message, ok := statusMessages[job.Status]
	if !ok {
		message = "Unknown status"
	}
	resp := statusResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		Message:     message,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		EditedFrom:  job.EditedFrom,
	}
	if job.Status == domain.JobStatusCompleted && job.Result != nil {
		resp.VideoURL = job.Result.VideoURL
		resp.ThumbnailURL = job.Result.ThumbnailURL
	}
	if job.Status == domain.JobStatusFailed {
		resp.Error = job.Error
		if resp.Error == "" {
			resp.Error = "Unknown error"
		}
	}

	a.json(w, http.StatusOK, resp)
}
