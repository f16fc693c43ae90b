package constants

// JobStatus is the canonical status for rows in parse_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusTextOK  JobStatus = "TEXT_OK" // stage 1 completed (text extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (schedule stored)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
