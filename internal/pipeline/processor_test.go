package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/extract"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

const dayText = `Golf Surgical Center
Page 1 of 2
OR 3
Start
End
Dur.
Surgeon
Procedure

09:00
09:45
30
Jane Doe appendectomy

General

Latex

100234 45 F

10:00
10:45
45
John Roe hernia repair

MAC

None

100235 60 M
`

type failingExtractor struct{ err error }

func (f failingExtractor) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{}, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) (repository.ParseJobRepository, repository.ScheduleEntryRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: "sqlite::memory:"}, quietLogger())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewParseJobRepository(db, quietLogger()), repository.NewScheduleEntryRepository(db, quietLogger())
}

func TestProcessFile_PersistsAndWritesOutput(t *testing.T) {
	ctx := context.Background()
	jobs, entries := newStore(t)
	outDir := t.TempDir()

	p := NewProcessor(quietLogger(), Config{OutputDir: outDir},
		extract.StaticExtractor{Text: dayText, SourceType: constants.TXT}, jobs, entries)

	out, err := p.ProcessFile(ctx, "/in/monday.txt")
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if out.Stats.Entries != 2 || out.Method != "text" {
		t.Fatalf("outcome = %+v", out)
	}

	job, err := jobs.Get(ctx, out.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != constants.JobStatusParsed || job.Entries != 2 {
		t.Fatalf("job = %+v", job)
	}
	if job.Company == nil || *job.Company != "Golf Surgical Center" {
		t.Fatalf("company = %v", job.Company)
	}

	stored, err := entries.ListByJob(ctx, out.JobID)
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	if len(stored) != 2 || stored[1].MRN != "100235" || stored[1].ORLabel != "OR 3" {
		t.Fatalf("stored = %+v", stored)
	}

	want := filepath.Join(outDir, "monday.json")
	if out.OutputPath != want {
		t.Fatalf("output path = %q, want %q", out.OutputPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res schedule.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if res.ORSections.Total() != 2 {
		t.Fatalf("output entries = %d", res.ORSections.Total())
	}

	// no temp files left behind
	files, _ := os.ReadDir(outDir)
	if len(files) != 1 {
		t.Fatalf("output dir has %d files", len(files))
	}
}

func TestProcessFile_ExtractFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	jobs, entries := newStore(t)
	p := NewProcessor(quietLogger(), Config{}, failingExtractor{err: errors.New("tesseract missing")}, jobs, entries)

	out, err := p.ProcessFile(ctx, "/in/scan.png")
	if err == nil {
		t.Fatal("expected error")
	}
	job, gerr := jobs.Get(ctx, out.JobID)
	if gerr != nil {
		t.Fatalf("Get: %v", gerr)
	}
	if job.Status != constants.JobStatusFailed || job.ErrorMessage == "" {
		t.Fatalf("job = %+v", job)
	}
}

func TestProcessFile_Unsupported(t *testing.T) {
	p := NewProcessor(quietLogger(), Config{}, extract.StaticExtractor{}, nil, nil)
	_, err := p.ProcessFile(context.Background(), "notes.docx")
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestProcessText_WithoutStore(t *testing.T) {
	p := NewProcessor(quietLogger(), Config{}, nil, nil, nil)
	out, err := p.ProcessText(context.Background(), "", dayText)
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if out.Result.ORSections.Total() != 2 || out.OutputPath != "" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestProcessQueued(t *testing.T) {
	ctx := context.Background()
	jobs, entries := newStore(t)
	p := NewProcessor(quietLogger(), Config{}, extract.StaticExtractor{Text: dayText}, jobs, entries)

	id, err := p.Enqueued(ctx, "/in/tuesday.pdf")
	if err != nil {
		t.Fatalf("Enqueued: %v", err)
	}
	job, err := jobs.Get(ctx, id)
	if err != nil || job.Status != constants.JobStatusQueued || job.SourceFormat != constants.PDF {
		t.Fatalf("queued job = %+v, %v", job, err)
	}

	out, err := p.ProcessQueued(ctx, id, "/in/tuesday.pdf")
	if err != nil {
		t.Fatalf("ProcessQueued: %v", err)
	}
	if out.JobID != id {
		t.Fatalf("job id changed: %s != %s", out.JobID, id)
	}
	job, _ = jobs.Get(ctx, id)
	if job.Status != constants.JobStatusParsed {
		t.Fatalf("status = %s", job.Status)
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"/a/b/day.pdf": "day.json",
		"day":          "day.json",
	}
	for in, want := range tests {
		if got := outputName(in, uuid.Nil); got != want {
			t.Errorf("outputName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := outputName("", uuid.Nil); got != "00000000-0000-0000-0000-000000000000.json" {
		t.Errorf("outputName(\"\") = %q", got)
	}
}
