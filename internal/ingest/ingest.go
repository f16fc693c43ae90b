package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string
	JobID        uuid.UUID
	Deduplicated bool
	HashHex      string
	FileExt      string
	SubmittedAt  time.Time
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Submitter hands an accepted document to processing and returns its job id.
type Submitter interface {
	Submit(ctx context.Context, path string) (uuid.UUID, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, path string) (uuid.UUID, error)

func (f SubmitFunc) Submit(ctx context.Context, path string) (uuid.UUID, error) {
	return f(ctx, path)
}
