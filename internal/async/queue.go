package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one document waiting for a worker. JobID refers to the QUEUED
// parse_job row created when the document was accepted.
type Job struct {
	JobID       uuid.UUID
	Path        string
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
