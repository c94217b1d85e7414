// Package store persists the three derived collections (raw prices, set
// documents, relic documents) plus the sync-run log. Two backends: Postgres
// for shared deployments, SQLite for local single-user runs.
package store

import (
	"context"
	"time"

	"github.com/squad-relic/relic-sync/internal/model"
)

// Counts holds the per-collection document counts the auditor compares
// against the freshly classified catalog.
type Counts struct {
	Raw    int64
	Sets   int64
	Relics int64
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// RunEntry is one row of the sync-run log.
type RunEntry struct {
	ID          string     `json:"id"`
	TriggeredBy string     `json:"triggered_by"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RowsWritten int64      `json:"rows_written"`
	Error       string     `json:"error,omitempty"`
}

// Store is the persistence interface of the sync pipeline: plain key lookup,
// counts, and bulk upsert. There are no store-side joins; derivation happens
// in process.
type Store interface {
	// Counts returns the document count of each collection.
	Counts(ctx context.Context) (Counts, error)

	// NewestObservation returns the most recent observed_at in the raw-price
	// collection, or nil when the collection is empty.
	NewestObservation(ctx context.Context) (*time.Time, error)

	// Full collection reads, used for in-process joins and write planning.
	RawPrices(ctx context.Context) ([]model.RawPrice, error)
	SetDocuments(ctx context.Context) ([]model.SetDocument, error)
	RelicDocuments(ctx context.Context) ([]model.RelicDocument, error)

	// Bulk upserts. Each call is one atomic write per collection per run.
	UpsertRawPrices(ctx context.Context, records []model.RawPrice) (int64, error)
	UpsertSetDocuments(ctx context.Context, docs []model.SetDocument) (int64, error)
	UpsertRelicDocuments(ctx context.Context, docs []model.RelicDocument) (int64, error)

	// Sync-run log.
	StartRun(ctx context.Context, triggeredBy string) (string, error)
	CompleteRun(ctx context.Context, runID string, rowsWritten int64) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]RunEntry, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
