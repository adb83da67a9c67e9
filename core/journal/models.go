package journal

import (
	"time"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusDryRun  = "dry_run"
)

// Run is one journaled sync run.
type Run struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Trigger    string    `gorm:"size:32" json:"trigger"`
	Source     string    `gorm:"size:512" json:"source"`
	Status     string    `gorm:"size:16;index" json:"status"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Local        int `json:"local"`
	Fetched      int `json:"fetched"`
	Inserted     int `json:"inserted"`
	Updated      int `json:"updated"`
	Unchanged    int `json:"unchanged"`
	Skipped      int `json:"skipped"`
	FailedChunks int `json:"failed_chunks"`

	Error      string `gorm:"type:text" json:"error,omitempty"`
	ArchiveKey string `gorm:"size:512" json:"archive_key,omitempty"`
}

// TableName overrides the default table name.
func (Run) TableName() string {
	return "sync_runs"
}

// FailedChunk is the payload of a chunk the remote rejected, kept for retry.
type FailedChunk struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RunID      string     `gorm:"size:64;index" json:"run_id"`
	Kind       string     `gorm:"size:16" json:"kind"`
	ChunkIndex int        `json:"chunk"`
	Size       int        `json:"size"`
	Payload    string     `gorm:"type:text" json:"-"`
	Error      string     `gorm:"type:text" json:"error"`
	RetriedAt  *time.Time `json:"retried_at,omitempty"`
	RetryRunID string     `gorm:"size:64" json:"retry_run_id,omitempty"`
}

// TableName overrides the default table name.
func (FailedChunk) TableName() string {
	return "sync_failed_chunks"
}
