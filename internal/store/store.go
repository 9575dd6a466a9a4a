// Package store persists prospects, outreach history, settings
// snapshots, and scored records in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/settings"
)

// ImportRun records one settings or record import for auditing.
type ImportRun struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // "settings", "prospects", "outreach"
	Source       string    `json:"source"`
	ImportedRows int       `json:"imported_rows"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Settings snapshots. A new snapshot replaces the previous one
	// wholesale; LatestSettings returns nil when none has been imported.
	SaveSettings(ctx context.Context, snap *settings.Normalized) error
	LatestSettings(ctx context.Context) (*settings.Normalized, error)

	// Records
	UpsertProspect(ctx context.Context, p model.Prospect) (string, error)
	ListProspects(ctx context.Context, limit int) ([]model.Prospect, error)
	AddOutreach(ctx context.Context, o model.Outreach) (string, error)
	ListOutreach(ctx context.Context, company string) ([]model.Outreach, error)

	// Scores
	SaveScore(ctx context.Context, rec *model.ScoredRecord) error
	GetScore(ctx context.Context, prospectID string) (*model.ScoredRecord, error)

	// Audit
	RecordImportRun(ctx context.Context, run ImportRun) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
