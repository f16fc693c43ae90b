package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

const tableScheduleEntry = "schedule_entry"

// StoredEntry is a persisted schedule entry with its OR placement.
type StoredEntry struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	ORLabel      string
	SectionIndex int
	Position     int
	schedule.Entry
}

type ScheduleEntryRepository interface {
	ReplaceForJob(ctx context.Context, jobID uuid.UUID, sections schedule.Sections) (int, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]StoredEntry, error)
}

type scheduleEntryRepo struct {
	db  *DB
	log *slog.Logger
}

func NewScheduleEntryRepository(db *DB, log *slog.Logger) ScheduleEntryRepository {
	if log == nil {
		log = slog.Default()
	}
	return &scheduleEntryRepo{db: db, log: log}
}

var scheduleEntryColumns = []string{
	"id", "job_id", "or_label", "section_index", "position",
	"start_time", "end_time", "duration", "surgeon", "procedure", "anesthesia",
	"tags", "mrn", "age", "sex", "gender_identity",
}

// ReplaceForJob deletes any entries already stored for the job and inserts
// the given sections in one transaction. Empty OR sections store nothing.
func (r *scheduleEntryRepo) ReplaceForJob(ctx context.Context, jobID uuid.UUID, sections schedule.Sections) (int, error) {
	tx, err := r.db.Driver.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %v", common.ErrDatabase, err)
	}

	q, args := r.db.builder().Delete(tableScheduleEntry).Where(entsql.EQ("job_id", jobID)).Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: clear entries: %v", common.ErrDatabase, err)
	}

	n := 0
	ins := r.db.builder().Insert(tableScheduleEntry).Columns(scheduleEntryColumns...)
	for si, label := range sections.Keys() {
		for pos, e := range sections.Entries(label) {
			ins.Values(uuid.New(), jobID, label, si, pos,
				e.StartTime, e.EndTime, e.Duration, e.Surgeon, e.Procedure, e.Anesthesia,
				e.Tags, e.MRN, e.Age, e.Sex, e.GenderIdentity)
			n++
		}
	}
	if n > 0 {
		q, args = ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			_ = tx.Rollback()
			r.log.Error("schedule_entry insert failed", "job_id", jobID, "err", err)
			return 0, fmt.Errorf("%w: insert entries: %v", common.ErrDatabase, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Info("schedule entries stored", "job_id", jobID, "entries", n, "sections", sections.Len())
	return n, nil
}

// ListByJob returns entries in document order.
func (r *scheduleEntryRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]StoredEntry, error) {
	q, args := r.db.builder().Select(scheduleEntryColumns...).
		From(entsql.Table(tableScheduleEntry)).
		Where(entsql.EQ("job_id", jobID)).
		OrderBy("section_index", "position").
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []StoredEntry
	for rows.Next() {
		var s StoredEntry
		if err := rows.Scan(&s.ID, &s.JobID, &s.ORLabel, &s.SectionIndex, &s.Position,
			&s.StartTime, &s.EndTime, &s.Duration, &s.Surgeon, &s.Procedure, &s.Anesthesia,
			&s.Tags, &s.MRN, &s.Age, &s.Sex, &s.GenderIdentity); err != nil {
			return nil, fmt.Errorf("%w: scan schedule_entry: %v", common.ErrDatabase, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// Sections rebuilds the per-OR grouping from stored entries. Labels without
// entries are not persisted and so do not come back.
func Sections(entries []StoredEntry) schedule.Sections {
	var s schedule.Sections
	for _, e := range entries {
		s.Append(e.ORLabel, e.Entry)
	}
	return s
}
