package domain

import (
	"context"
	"time"
)

// JobStore persists whole job records under a retention TTL. Every Put
// overwrites the full record and restarts the TTL countdown.
type JobStore interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Delete(ctx context.Context, id string) error
}

// JobQueue orders pending job ids for the render worker. Dequeue blocks up
// to timeout and returns ErrQueueEmpty when nothing arrived; a non-positive
// timeout polls without blocking.
type JobQueue interface {
	Enqueue(ctx context.Context, id string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// JobArchive records terminal jobs in durable storage for reporting. The
// archive is optional; implementations must tolerate repeated saves of the
// same job id.
type JobArchive interface {
	SaveTerminal(ctx context.Context, job *Job) error
}
