package domain

import (
	"time"

	"mathviz/internal/domain/scenecfg"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var statusRank = map[JobStatus]int{
	JobStatusQueued:     0,
	JobStatusProcessing: 1,
	JobStatusCompleted:  2,
	JobStatusFailed:     2,
}

// Terminal reports whether no further transitions may occur from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether a job may move from s to next. Transitions
// are forward-only: queued -> processing -> completed|failed. A queued job
// may fail directly, a terminal job never moves again.
func (s JobStatus) CanTransition(next JobStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// JobResult references the published artifacts of a completed job.
type JobResult struct {
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Job is the full lifecycle record of one visualization request. The whole
// record is serialized into the job store; partial merges happen in the
// lifecycle engine via read-modify-write.
type Job struct {
	ID          string          `json:"id"`
	Status      JobStatus       `json:"status"`
	Params      scenecfg.Params `json:"params"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      *JobResult      `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	EditedFrom  string          `json:"edited_from,omitempty"`
}
