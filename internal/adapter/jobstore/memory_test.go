package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	job := &domain.Job{
		ID:        "job-1",
		Status:    domain.JobStatusQueued,
		Params:    scenecfg.Params{SceneType: scenecfg.SceneFunctionGraph, Function: "sin(x)", XRange: []float64{-1, 1}},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Put(ctx, job); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != domain.JobStatusQueued || got.Params.Function != "sin(x)" {
		t.Fatalf("Get returned unexpected record: %+v", got)
	}

	// Mutating the returned record must not leak into the store.
	got.Status = domain.JobStatusFailed
	again, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
	if again.Status != domain.JobStatusQueued {
		t.Fatalf("stored record mutated through read: %s", again.Status)
	}
}

func TestMemoryStoreMissingAndDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	job := &domain.Job{ID: "job-2", Status: domain.JobStatusQueued, CreatedAt: time.Now()}
	if err := store.Put(ctx, job); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Delete(ctx, "job-2"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, "job-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(deleted) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)

	job := &domain.Job{ID: "short-lived", Status: domain.JobStatusQueued, CreatedAt: time.Now()}
	if err := store.Put(ctx, job); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := store.Get(ctx, "short-lived"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(expired) = %v, want ErrNotFound", err)
	}
}

func TestMemoryQueueFIFO(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	queue := NewMemoryQueue()

	if err := queue.Enqueue(ctx, "A"); err != nil {
		t.Fatalf("Enqueue(A) returned error: %v", err)
	}
	if err := queue.Enqueue(ctx, "B"); err != nil {
		t.Fatalf("Enqueue(B) returned error: %v", err)
	}

	first, err := queue.Dequeue(ctx, 0)
	if err != nil {
		t.Fatalf("first Dequeue returned error: %v", err)
	}
	second, err := queue.Dequeue(ctx, 0)
	if err != nil {
		t.Fatalf("second Dequeue returned error: %v", err)
	}
	if first != "A" || second != "B" {
		t.Fatalf("Dequeue order = %q, %q; want A, B", first, second)
	}
}

func TestMemoryQueueTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	queue := NewMemoryQueue()

	start := time.Now()
	if _, err := queue.Dequeue(ctx, 20*time.Millisecond); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Fatalf("Dequeue(empty) = %v, want ErrQueueEmpty", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("Dequeue returned after %v, want at least the timeout", elapsed)
	}

	if _, err := queue.Dequeue(ctx, 0); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Fatalf("non-blocking Dequeue(empty) = %v, want ErrQueueEmpty", err)
	}
}

func TestMemoryQueueWakesBlockedConsumer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	queue := NewMemoryQueue()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := queue.Dequeue(ctx, 2*time.Second)
		done <- result{id: id, err: err}
	}()

	time.Sleep(10 * time.Millisecond)
	if err := queue.Enqueue(ctx, "wakeup"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Dequeue returned error: %v", res.err)
		}
		if res.id != "wakeup" {
			t.Fatalf("Dequeue = %q, want %q", res.id, "wakeup")
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Dequeue was not woken by Enqueue")
	}
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	t.Parallel()
	queue := NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := queue.Dequeue(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("Dequeue(cancelled) = %v, want context.Canceled", err)
	}
}
