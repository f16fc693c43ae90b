package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

const tableParseJob = "parse_job"

// ParseJob is one run of the pipeline over a source document.
type ParseJob struct {
	ID                uuid.UUID           `json:"job_id"`
	SourcePath        string              `json:"source_path"`
	SourceFormat      string              `json:"source_format"`
	Status            constants.JobStatus `json:"status"`
	Method            string              `json:"method,omitempty"`
	Pages             int                 `json:"pages"`
	Confidence        float64             `json:"confidence"`
	Company           *string             `json:"company"`
	ResultJSON        json.RawMessage     `json:"result,omitempty"`
	Entries           int                 `json:"entries"`
	Rejected          int                 `json:"rejected"`
	MalformedMetadata int                 `json:"malformed_metadata"`
	ErrorMessage      string              `json:"error_message,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	FinishedAt        *time.Time          `json:"finished_at,omitempty"`
}

type ParseJobRepository interface {
	Start(ctx context.Context, sourcePath, format string, status constants.JobStatus) (*ParseJob, error)
	SetStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error
	FinishText(ctx context.Context, jobID uuid.UUID, method string, pages int, confidence float32) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, company *string, resultJSON []byte, stats schedule.Stats) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*ParseJob, error)
	List(ctx context.Context, limit int) ([]ParseJob, error)
}

type parseJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewParseJobRepository(db *DB, log *slog.Logger) ParseJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &parseJobRepo{db: db, log: log}
}

var parseJobColumns = []string{
	"id", "source_path", "source_format", "status", "method", "pages", "confidence",
	"company", "result_json", "entries", "rejected", "malformed_metadata",
	"error_message", "created_at", "finished_at",
}

func (r *parseJobRepo) Start(ctx context.Context, sourcePath, format string, status constants.JobStatus) (*ParseJob, error) {
	if !slices.Contains(constants.FileTypes, format) {
		return nil, common.NewAppError("INVALID_FORMAT", fmt.Sprintf("source format %q", format), common.ErrInvalidInput)
	}
	job := &ParseJob{
		ID:           uuid.New(),
		SourcePath:   sourcePath,
		SourceFormat: format,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	q, args := r.db.builder().Insert(tableParseJob).
		Columns("id", "source_path", "source_format", "status", "created_at").
		Values(job.ID, job.SourcePath, job.SourceFormat, string(job.Status), job.CreatedAt).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("parse_job start failed", "path", sourcePath, "err", err)
		return nil, common.NewAppError("DB_ERROR", "start parse job", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	r.log.Info("parse_job started", "job_id", job.ID, "path", sourcePath, "format", format, "status", status)
	return job, nil
}

func (r *parseJobRepo) update(ctx context.Context, jobID uuid.UUID, set func(u *entsql.UpdateBuilder)) error {
	u := r.db.builder().Update(tableParseJob)
	set(u)
	q, args := u.Where(entsql.EQ("id", jobID)).Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("parse job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *parseJobRepo) SetStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(status))
	})
	if err != nil {
		r.log.Error("parse_job status update failed", "job_id", jobID, "status", status, "err", err)
		return err
	}
	r.log.Debug("parse_job status", "job_id", jobID, "status", status)
	return nil
}

func (r *parseJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, method string, pages int, confidence float32) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusTextOK)).
			Set("method", method).
			Set("pages", pages).
			Set("confidence", float64(confidence))
	})
	if err != nil {
		r.log.Error("parse_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("parse_job text extracted", "job_id", jobID, "method", method, "pages", pages)
	return nil
}

func (r *parseJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, company *string, resultJSON []byte, stats schedule.Stats) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusParsed)).
			Set("result_json", string(resultJSON)).
			Set("entries", stats.Entries).
			Set("rejected", stats.Rejected).
			Set("malformed_metadata", stats.MalformedMetadata).
			Set("finished_at", time.Now().UTC())
		if company != nil {
			u.Set("company", *company)
		} else {
			u.SetNull("company")
		}
	})
	if err != nil {
		r.log.Error("parse_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("parse_job finished (PARSED)", "job_id", jobID, "entries", stats.Entries, "rejected", stats.Rejected)
	return nil
}

func (r *parseJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusFailed)).
			Set("error_message", message).
			Set("finished_at", time.Now().UTC())
	})
	if err != nil {
		r.log.Error("parse_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("parse_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *parseJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*ParseJob, error) {
	q, args := r.db.builder().Select(parseJobColumns...).
		From(entsql.Table(tableParseJob)).
		Where(entsql.EQ("id", jobID)).
		Query()
	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("parse job %s: %w", jobID, common.ErrNotFound)
	}
	return &jobs[0], nil
}

// List returns the most recent jobs first.
func (r *parseJobRepo) List(ctx context.Context, limit int) ([]ParseJob, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args := r.db.builder().Select(parseJobColumns...).
		From(entsql.Table(tableParseJob)).
		OrderBy(entsql.Desc("created_at")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *parseJobRepo) query(ctx context.Context, q string, args []any) ([]ParseJob, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []ParseJob
	for rows.Next() {
		var (
			j                 ParseJob
			status            string
			company, result   sql.NullString
			created, finished scanTime
		)
		if err := rows.Scan(&j.ID, &j.SourcePath, &j.SourceFormat, &status, &j.Method, &j.Pages,
			&j.Confidence, &company, &result, &j.Entries, &j.Rejected, &j.MalformedMetadata,
			&j.ErrorMessage, &created, &finished); err != nil {
			return nil, fmt.Errorf("%w: scan parse_job: %v", common.ErrDatabase, err)
		}
		j.Status = constants.JobStatus(status)
		if company.Valid {
			c := company.String
			j.Company = &c
		}
		if result.Valid {
			j.ResultJSON = json.RawMessage(result.String)
		}
		j.CreatedAt = created.t
		if finished.valid {
			t := finished.t
			j.FinishedAt = &t
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// scanTime accepts the representations drivers use for timestamps: native
// time.Time from pgx, text from SQLite.
type scanTime struct {
	t     time.Time
	valid bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func (s *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.valid = false
		return nil
	case time.Time:
		s.t, s.valid = v, true
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	}
	return fmt.Errorf("unsupported time value %T", src)
}

func (s *scanTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			s.t, s.valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", v)
}
