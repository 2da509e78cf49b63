package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mathviz/internal/domain"
)

// MemoryStore is an in-process domain.JobStore intended for development and
// test environments where Redis is not available. Records are serialized on
// Put so callers never share memory with stored jobs, and expiry is applied
// lazily on read.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	jobs map[string]memoryRecord
}

type memoryRecord struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory job store with the given retention window.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, jobs: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Put(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	s.mu.Lock()
	s.jobs[job.ID] = memoryRecord{payload: payload, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rec, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(rec.expiresAt) {
		return nil, domain.ErrNotFound
	}
	var job domain.Job
	if err := json.Unmarshal(rec.payload, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
	return nil
}

// MemoryQueue is an in-process domain.JobQueue companion to MemoryStore.
type MemoryQueue struct {
	mu    sync.Mutex
	items []string
	wake  chan struct{}
}

// NewMemoryQueue creates an empty in-memory pending queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{wake: make(chan struct{})}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	q.items = append(q.items, id)
	close(q.wake)
	q.wake = make(chan struct{})
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return id, nil
		}
		wake := q.wake
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if timeout <= 0 || remaining <= 0 {
			return "", domain.ErrQueueEmpty
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-wake:
			timer.Stop()
		case <-timer.C:
			return "", domain.ErrQueueEmpty
		}
	}
}

var (
	_ domain.JobStore = (*MemoryStore)(nil)
	_ domain.JobQueue = (*MemoryQueue)(nil)
)
