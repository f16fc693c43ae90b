package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/async"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

// ScheduleService implements ScheduleServer on top of the pipeline. Jobs and
// Queue may be nil when the server runs without a database.
type ScheduleService struct {
	processor *pipeline.Processor
	jobs      repository.ParseJobRepository
	queue     async.Queue
	logger    *slog.Logger
}

func NewScheduleService(proc *pipeline.Processor, jobs repository.ParseJobRepository, q async.Queue, logger *slog.Logger) *ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{processor: proc, jobs: jobs, queue: q, logger: logger}
}

// ParseText parses {text, source?, facility?} synchronously.
func (s *ScheduleService) ParseText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	source := strings.TrimSpace(stringField(req, "source"))
	facility := stringField(req, "facility")

	v := common.NewValidator().
		Field("text", text, common.Required, common.MaxBytes(constants.MaxTextBytes))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("parse text request rejected", "error", v.ErrorMessage())
		return nil, err
	}
	hint, err := facilityHint(facility)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.processor.ProcessText(ctx, source, text)
	if err != nil {
		s.logger.Error("parse text failed", "source", source, "error", err)
		return nil, common.ToStatus(err)
	}
	if out.Result.Company == nil && hint != nil {
		out.Result.Company = hint
	}
	s.logger.Info("parse text ok",
		"job_id", out.JobID,
		"entries", out.Stats.Entries,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return outcomeStruct(out)
}

// ParseFile parses {path, async?}. With async and a queue configured the
// file is only accepted and {job_id, queued: true} comes back.
func (s *ScheduleService) ParseFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(stringField(req, "path"))
	v := common.NewValidator().Field("path", path, common.Required, common.SupportedFile)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("parse file request rejected", "path", path, "error", v.ErrorMessage())
		return nil, err
	}

	if boolField(req, "async") && s.queue != nil {
		jobID, err := s.processor.Enqueued(ctx, path)
		if err != nil {
			return nil, common.ToStatus(err)
		}
		job := async.Job{JobID: jobID, Path: path, SubmittedAt: time.Now(), RequestID: common.RequestIDFromContext(ctx)}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Error("enqueue failed", "job_id", jobID, "error", err)
			return nil, common.InternalErrorf("enqueue: %v", err)
		}
		return structpb.NewStruct(map[string]any{"job_id": jobID.String(), "queued": true})
	}

	out, err := s.processor.ProcessFile(ctx, path)
	if err != nil {
		s.logger.Error("parse file failed", "path", path, "error", err)
		return nil, common.ToStatus(err)
	}
	return outcomeStruct(out)
}

// GetJob returns the stored job {job_id}.
func (s *ScheduleService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(stringField(req, "job_id"))
	v := common.NewValidator().Field("job_id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if s.jobs == nil {
		return nil, common.NotFoundError("job storage is not configured")
	}

	job, err := s.jobs.Get(ctx, uuid.MustParse(id))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(job)
}

// facilityHint resolves an optional facility name given by the caller.
func facilityHint(name string) (*string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	canonical, ok := constants.CanonicalFacility(name)
	if !ok {
		return nil, common.InvalidArgumentErrorf("unknown facility %q", name)
	}
	return &canonical, nil
}

func outcomeStruct(out pipeline.Outcome) (*structpb.Struct, error) {
	return toStruct(struct {
		JobID      uuid.UUID         `json:"job_id"`
		Company    *string           `json:"company"`
		ORSections schedule.Sections `json:"or_sections"`
		ORKeys     []string          `json:"or_keys"`
		Stats      schedule.Stats    `json:"stats"`
		Method     string            `json:"method"`
		Pages      int               `json:"pages"`
		Confidence float32           `json:"confidence"`
	}{
		JobID:      out.JobID,
		Company:    out.Result.Company,
		ORSections: out.Result.ORSections,
		ORKeys:     out.Result.ORSections.Keys(),
		Stats:      out.Stats,
		Method:     out.Method,
		Pages:      out.Pages,
		Confidence: out.Confidence,
	})
}

// toStruct converts any JSON-marshalable value into a Struct. Struct fields
// are unordered, which is why outcomes also carry or_keys.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return st, nil
}

func stringField(st *structpb.Struct, key string) string {
	if st == nil {
		return ""
	}
	if v, ok := st.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func boolField(st *structpb.Struct, key string) bool {
	if st == nil {
		return false
	}
	if v, ok := st.GetFields()[key]; ok {
		return v.GetBoolValue()
	}
	return false
}
