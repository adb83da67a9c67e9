package reconcile

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MaxChunkSize is the remote per-request record limit.
const MaxChunkSize = 10

// Config holds configuration for reconciliation runs.
type Config struct {
	// KeyField is the natural-key field shared by local and remote records.
	KeyField string `mapstructure:"key_field" default:"LiQ - Payroll Number"`
	// ChunkSize is the number of records per create or update call (1-10).
	ChunkSize int `mapstructure:"chunk_size" default:"10"`
	// CallTimeoutSeconds bounds each page fetch and chunk write. Zero disables it.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" default:"30"`
	// ReportAllDiffs logs every differing field of an update instead of the first.
	ReportAllDiffs bool `mapstructure:"report_all_diffs" default:"false"`
	// IdentityFields are logged for records skipped for lacking a key.
	IdentityFields []string `mapstructure:"identity_fields"`
	// DryRun plans without writing to the remote table.
	DryRun bool `mapstructure:"dry_run" default:"false"`
}

// DefaultIdentityFields identify an employee when the payroll number is missing.
var DefaultIdentityFields = []string{"LiQ - First Name", "LiQ - Last Name", "LiQ - Email"}

// Validate checks the key field and the chunk bounds.
func (c Config) Validate() error {
	if c.KeyField == "" {
		return fmt.Errorf("sync key_field is required")
	}
	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("sync chunk_size must be between 1 and %d, got %d", MaxChunkSize, c.ChunkSize)
	}
	if c.CallTimeoutSeconds < 0 {
		return fmt.Errorf("sync call_timeout_seconds must not be negative")
	}
	return nil
}

// Spec builds the per-run Spec from the configuration.
func (c Config) Spec(logger *zap.Logger) *Spec {
	identity := c.IdentityFields
	if len(identity) == 0 {
		identity = DefaultIdentityFields
	}
	return &Spec{
		KeyField:       c.KeyField,
		ChunkSize:      c.ChunkSize,
		CallTimeout:    time.Duration(c.CallTimeoutSeconds) * time.Second,
		ReportAllDiffs: c.ReportAllDiffs,
		IdentityFields: identity,
		Logger:         logger,
	}
}
