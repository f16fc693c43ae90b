package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
)

type recordingProcessor struct {
	mu    sync.Mutex
	seen  map[uuid.UUID]string
	block chan struct{}
}

func (r *recordingProcessor) ProcessQueued(ctx context.Context, jobID uuid.UUID, path string) (pipeline.Outcome, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[jobID] = path
	return pipeline.Outcome{JobID: jobID}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	proc := &recordingProcessor{seen: map[uuid.UUID]string{}}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(3), WithQueueSize(16))

	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		if err := q.Enqueue(context.Background(), Job{JobID: ids[i], Path: "day.pdf"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.seen) != len(ids) {
		t.Fatalf("processed %d jobs, want %d", len(proc.seen), len(ids))
	}
	for _, id := range ids {
		if proc.seen[id] != "day.pdf" {
			t.Fatalf("job %s not processed", id)
		}
	}
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recordingProcessor{seen: map[uuid.UUID]string{}}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{JobID: uuid.New()})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	proc := &recordingProcessor{seen: map[uuid.UUID]string{}, block: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))

	// one job held by the worker, one in the buffer
	_ = q.Enqueue(context.Background(), Job{JobID: uuid.New()})
	_ = q.Enqueue(context.Background(), Job{JobID: uuid.New()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// the worker may not have taken the first job yet, so allow one more slot
	var err error
	for i := 0; i < 2 && err == nil; i++ {
		err = q.Enqueue(ctx, Job{JobID: uuid.New()})
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(proc.block)
	q.Shutdown(context.Background())
}
