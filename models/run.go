package models

import (
	"time"

	"github.com/google/uuid"
)

// MigrationRun records one execution of the migration for operational history.
// The cursor itself is never persisted; a new run always starts from id 0.
type MigrationRun struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Backend      string     `json:"backend" db:"backend"` // postgres, supabase
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at" db:"finished_at"`
	Status       string     `json:"status" db:"status"`
	TotalRows    int64      `json:"total_rows" db:"total_rows"`
	Processed    int64      `json:"processed" db:"processed"`
	Upserted     int64      `json:"upserted" db:"upserted"`
	Skipped      int64      `json:"skipped" db:"skipped"`
	ErrorsCount  int64      `json:"errors_count" db:"errors_count"`
	ErrorMessage string     `json:"error_message" db:"error_message"`
}

// MigrationLog is a per-batch error entry attached to a run.
type MigrationLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     uuid.UUID `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     string    `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
}

// Run status
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial" // finished, but some batches errored
	RunStatusFailed    = "failed"
)
