package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS parse_job (
		id                 UUID PRIMARY KEY,
		source_path        TEXT NOT NULL,
		source_format      TEXT NOT NULL,
		status             TEXT NOT NULL,
		method             TEXT NOT NULL DEFAULT '',
		pages              INTEGER NOT NULL DEFAULT 0,
		confidence         DOUBLE PRECISION NOT NULL DEFAULT 0,
		company            TEXT,
		result_json        TEXT,
		entries            INTEGER NOT NULL DEFAULT 0,
		rejected           INTEGER NOT NULL DEFAULT 0,
		malformed_metadata INTEGER NOT NULL DEFAULT 0,
		error_message      TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		finished_at        TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_entry (
		id              UUID PRIMARY KEY,
		job_id          UUID NOT NULL REFERENCES parse_job(id) ON DELETE CASCADE,
		or_label        TEXT NOT NULL,
		section_index   INTEGER NOT NULL,
		position        INTEGER NOT NULL,
		start_time      TEXT NOT NULL,
		end_time        TEXT NOT NULL,
		duration        TEXT NOT NULL,
		surgeon         TEXT NOT NULL,
		procedure       TEXT NOT NULL,
		anesthesia      TEXT NOT NULL,
		tags            TEXT NOT NULL,
		mrn             TEXT NOT NULL,
		age             TEXT NOT NULL,
		sex             TEXT NOT NULL,
		gender_identity TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_entry_job ON schedule_entry(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_parse_job_created ON parse_job(created_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS parse_job (
		id                 TEXT PRIMARY KEY,
		source_path        TEXT NOT NULL,
		source_format      TEXT NOT NULL,
		status             TEXT NOT NULL,
		method             TEXT NOT NULL DEFAULT '',
		pages              INTEGER NOT NULL DEFAULT 0,
		confidence         REAL NOT NULL DEFAULT 0,
		company            TEXT,
		result_json        TEXT,
		entries            INTEGER NOT NULL DEFAULT 0,
		rejected           INTEGER NOT NULL DEFAULT 0,
		malformed_metadata INTEGER NOT NULL DEFAULT 0,
		error_message      TEXT NOT NULL DEFAULT '',
		created_at         DATETIME NOT NULL,
		finished_at        DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_entry (
		id              TEXT PRIMARY KEY,
		job_id          TEXT NOT NULL REFERENCES parse_job(id) ON DELETE CASCADE,
		or_label        TEXT NOT NULL,
		section_index   INTEGER NOT NULL,
		position        INTEGER NOT NULL,
		start_time      TEXT NOT NULL,
		end_time        TEXT NOT NULL,
		duration        TEXT NOT NULL,
		surgeon         TEXT NOT NULL,
		procedure       TEXT NOT NULL,
		anesthesia      TEXT NOT NULL,
		tags            TEXT NOT NULL,
		mrn             TEXT NOT NULL,
		age             TEXT NOT NULL,
		sex             TEXT NOT NULL,
		gender_identity TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_entry_job ON schedule_entry(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_parse_job_created ON parse_job(created_at)`,
}

// Migrate creates the parse_job and schedule_entry tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if d.Dialect == dialect.SQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if err := d.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			d.logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Info("database schema up to date", "dialect", d.Dialect)
	return nil
}
