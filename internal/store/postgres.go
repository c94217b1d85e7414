package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/squad-relic/relic-sync/internal/db"
	"github.com/squad-relic/relic-sync/internal/model"
)

// Table names, schema-qualified.
const (
	tableRawPrices = "relic_data.raw_prices"
	tablePrimeSets = "relic_data.prime_sets"
	tableRelics    = "relic_data.relics"
	tableSyncRuns  = "relic_data.sync_runs"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a Store backed by the given pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS relic_data;

CREATE TABLE IF NOT EXISTS relic_data.raw_prices (
	item_id     TEXT PRIMARY KEY,
	url_name    TEXT NOT NULL,
	price_90d   DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_48h   DOUBLE PRECISION NOT NULL DEFAULT 0,
	observed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS relic_data.prime_sets (
	set_id    TEXT PRIMARY KEY,
	set_url   TEXT NOT NULL,
	price_90d DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_48h DOUBLE PRECISION NOT NULL DEFAULT 0,
	parts     JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS relic_data.relics (
	relic_id     TEXT PRIMARY KEY,
	relic_url    TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	price_90d    DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_48h    DOUBLE PRECISION NOT NULL DEFAULT 0,
	subtypes     TEXT NOT NULL DEFAULT '',
	rewards      JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS relic_data.sync_runs (
	id           UUID PRIMARY KEY,
	triggered_by TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	rows_written BIGINT NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_raw_prices_url_name ON relic_data.raw_prices(url_name);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON relic_data.sync_runs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: postgres migrate")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.pool.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM relic_data.raw_prices),
		(SELECT count(*) FROM relic_data.prime_sets),
		(SELECT count(*) FROM relic_data.relics)`)
	if err := row.Scan(&c.Raw, &c.Sets, &c.Relics); err != nil {
		return Counts{}, eris.Wrap(err, "store: counts")
	}
	return c, nil
}

func (s *PostgresStore) NewestObservation(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT max(observed_at) FROM relic_data.raw_prices`,
	).Scan(&t)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: newest observation")
	}
	return t, nil
}

func (s *PostgresStore) RawPrices(ctx context.Context) ([]model.RawPrice, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, url_name, price_90d, price_48h, observed_at
		 FROM relic_data.raw_prices ORDER BY url_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: raw prices")
	}
	defer rows.Close()

	var records []model.RawPrice
	for rows.Next() {
		var r model.RawPrice
		if err := rows.Scan(&r.ItemID, &r.URLName, &r.Price90d, &r.Price48h, &r.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan raw price")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) SetDocuments(ctx context.Context) ([]model.SetDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT set_id, set_url, price_90d, price_48h, parts
		 FROM relic_data.prime_sets ORDER BY set_url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: set documents")
	}
	defer rows.Close()

	var docs []model.SetDocument
	for rows.Next() {
		var d model.SetDocument
		var partsJSON []byte
		if err := rows.Scan(&d.SetID, &d.SetURL, &d.Price.P90d, &d.Price.P48h, &partsJSON); err != nil {
			return nil, eris.Wrap(err, "store: scan set document")
		}
		if err := json.Unmarshal(partsJSON, &d.Parts); err != nil {
			return nil, eris.Wrapf(err, "store: decode parts for %s", d.SetURL)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) RelicDocuments(ctx context.Context) ([]model.RelicDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT relic_id, relic_url, display_name, price_90d, price_48h, subtypes, rewards
		 FROM relic_data.relics ORDER BY relic_url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: relic documents")
	}
	defer rows.Close()

	var docs []model.RelicDocument
	for rows.Next() {
		var d model.RelicDocument
		var rewardsJSON []byte
		if err := rows.Scan(&d.RelicID, &d.RelicURL, &d.DisplayName, &d.Price.P90d, &d.Price.P48h, &d.Subtypes, &rewardsJSON); err != nil {
			return nil, eris.Wrap(err, "store: scan relic document")
		}
		if err := json.Unmarshal(rewardsJSON, &d.Rewards); err != nil {
			return nil, eris.Wrapf(err, "store: decode rewards for %s", d.RelicURL)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) UpsertRawPrices(ctx context.Context, records []model.RawPrice) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.ItemID, r.URLName, r.Price90d, r.Price48h, r.ObservedAt})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        tableRawPrices,
		Columns:      []string{"item_id", "url_name", "price_90d", "price_48h", "observed_at"},
		ConflictKeys: []string{"item_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "store: upsert raw prices")
	}
	return n, nil
}

func (s *PostgresStore) UpsertSetDocuments(ctx context.Context, docs []model.SetDocument) (int64, error) {
	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		partsJSON, err := json.Marshal(d.Parts)
		if err != nil {
			return 0, eris.Wrapf(err, "store: encode parts for %s", d.SetURL)
		}
		rows = append(rows, []any{d.SetID, d.SetURL, d.Price.P90d, d.Price.P48h, partsJSON})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        tablePrimeSets,
		Columns:      []string{"set_id", "set_url", "price_90d", "price_48h", "parts"},
		ConflictKeys: []string{"set_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "store: upsert set documents")
	}
	return n, nil
}

func (s *PostgresStore) UpsertRelicDocuments(ctx context.Context, docs []model.RelicDocument) (int64, error) {
	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		rewardsJSON, err := json.Marshal(d.Rewards)
		if err != nil {
			return 0, eris.Wrapf(err, "store: encode rewards for %s", d.RelicURL)
		}
		rows = append(rows, []any{d.RelicID, d.RelicURL, d.DisplayName, d.Price.P90d, d.Price.P48h, d.Subtypes, rewardsJSON})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        tableRelics,
		Columns:      []string{"relic_id", "relic_url", "display_name", "price_90d", "price_48h", "subtypes", "rewards"},
		ConflictKeys: []string{"relic_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "store: upsert relic documents")
	}
	return n, nil
}

func (s *PostgresStore) StartRun(ctx context.Context, triggeredBy string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO relic_data.sync_runs (id, triggered_by, status, started_at)
		 VALUES ($1, $2, $3, now())`,
		id, triggeredBy, RunStatusRunning,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: start run")
	}
	return id, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, rowsWritten int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE relic_data.sync_runs
		 SET status = $1, completed_at = now(), rows_written = $2
		 WHERE id = $3`,
		RunStatusComplete, rowsWritten, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: complete run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE relic_data.sync_runs
		 SET status = $1, completed_at = now(), error = $2
		 WHERE id = $3`,
		RunStatusFailed, errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: fail run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, triggered_by, status, started_at, completed_at, rows_written, error
		 FROM relic_data.sync_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var errStr *string
		if err := rows.Scan(&e.ID, &e.TriggeredBy, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RowsWritten, &errStr); err != nil {
			return nil, eris.Wrap(err, "store: scan run entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
