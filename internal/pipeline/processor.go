package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/extract"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
	"github.com/joseph-ayodele/or-schedule/internal/schema"
)

// Config holds behavior flags for the processor.
type Config struct {
	// OutputDir receives <name>.json for every parsed document. Empty disables it.
	OutputDir         string
	Facilities        []string
	LegacyWorklistPop bool
}

// Outcome summarizes one processed document.
type Outcome struct {
	JobID      uuid.UUID
	Result     schedule.Result
	Stats      schedule.Stats
	Method     string
	Pages      int
	Confidence float32
	OutputPath string
}

// Processor coordinates text extraction then schedule parsing for a document.
// Jobs and Entries are optional; without them nothing is persisted.
type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor extract.TextExtractor
	Parser    *schedule.Parser
	Jobs      repository.ParseJobRepository
	Entries   repository.ScheduleEntryRepository

	schema map[string]any
}

func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	tx extract.TextExtractor,
	jobs repository.ParseJobRepository,
	entries repository.ScheduleEntryRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Facilities) == 0 {
		cfg.Facilities = constants.KnownFacilities
	}
	opts := []schedule.Option{schedule.WithLogger(logger), schedule.WithFacilities(cfg.Facilities)}
	if cfg.LegacyWorklistPop {
		opts = append(opts, schedule.WithLegacyWorklistPop())
	}
	return &Processor{
		Logger:    logger,
		Cfg:       cfg,
		Extractor: tx,
		Parser:    schedule.NewParser(opts...),
		Jobs:      jobs,
		Entries:   entries,
		schema:    schema.BuildResultJSONSchema(cfg.Facilities),
	}
}

// ProcessFile starts a parse_job for path and runs both stages on it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return Outcome{}, common.NewAppError("UNSUPPORTED_FORMAT", "unsupported file "+filepath.Base(path), common.ErrUnsupportedFormat)
	}
	jobID, err := p.startJob(ctx, path, format, constants.JobStatusRunning)
	if err != nil {
		return Outcome{}, err
	}
	return p.run(ctx, jobID, path)
}

// ProcessQueued runs both stages for a job created earlier in QUEUED state.
func (p *Processor) ProcessQueued(ctx context.Context, jobID uuid.UUID, path string) (Outcome, error) {
	if p.Jobs != nil {
		if err := p.Jobs.SetStatus(ctx, jobID, constants.JobStatusRunning); err != nil {
			return Outcome{JobID: jobID}, err
		}
	}
	return p.run(ctx, jobID, path)
}

// Enqueued creates a QUEUED job for path so a worker can pick it up later.
func (p *Processor) Enqueued(ctx context.Context, path string) (uuid.UUID, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return uuid.Nil, common.NewAppError("UNSUPPORTED_FORMAT", "unsupported file "+filepath.Base(path), common.ErrUnsupportedFormat)
	}
	return p.startJob(ctx, path, format, constants.JobStatusQueued)
}

// ProcessText parses text the caller already holds. source names the
// document in logs, the job row and the output file.
func (p *Processor) ProcessText(ctx context.Context, source, text string) (Outcome, error) {
	jobID, err := p.startJob(ctx, source, constants.TXT, constants.JobStatusRunning)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.recordText(ctx, jobID, "text", 1, 1); err != nil {
		return Outcome{JobID: jobID}, p.fail(ctx, jobID, err)
	}
	out, err := p.parse(ctx, jobID, source, text)
	out.Method, out.Pages, out.Confidence = "text", 1, 1
	return out, err
}

func (p *Processor) run(ctx context.Context, jobID uuid.UUID, path string) (Outcome, error) {
	ctx = common.WithJobID(ctx, jobID)

	res, err := p.extractText(ctx, jobID, path)
	if err != nil {
		p.Logger.Error("pipeline.extract.failed", "job_id", jobID, "path", path, "err", err)
		return Outcome{JobID: jobID}, p.fail(ctx, jobID, err)
	}
	p.Logger.Info("pipeline.extract.ok",
		"job_id", jobID,
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)

	out, err := p.parse(ctx, jobID, path, res.Text)
	out.Method, out.Pages, out.Confidence = res.Method, res.Pages, res.Confidence
	if err != nil {
		p.Logger.Error("pipeline.parse.failed", "job_id", jobID, "err", err)
		return out, err
	}
	p.Logger.Info("pipeline.parse.ok", "job_id", jobID, "entries", out.Stats.Entries, "output", out.OutputPath)
	return out, nil
}

func (p *Processor) startJob(ctx context.Context, source, format string, status constants.JobStatus) (uuid.UUID, error) {
	if p.Jobs == nil {
		return uuid.New(), nil
	}
	job, err := p.Jobs.Start(ctx, source, format, status)
	if err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

// fail records err on the job and returns it. The write survives a cancelled
// ctx so timed-out jobs still end up FAILED.
func (p *Processor) fail(ctx context.Context, jobID uuid.UUID, err error) error {
	if p.Jobs != nil {
		if ferr := p.Jobs.FinishFailure(context.WithoutCancel(ctx), jobID, err.Error()); ferr != nil {
			p.Logger.Error("pipeline.fail.record_failed", "job_id", jobID, "err", ferr)
		}
	}
	return fmt.Errorf("job %s: %w", jobID, err)
}
