package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/squad-relic/relic-sync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Raw observation
// timestamps are stored as unix seconds; embedded documents as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS raw_prices (
	item_id     TEXT PRIMARY KEY,
	url_name    TEXT NOT NULL,
	price_90d   REAL NOT NULL DEFAULT 0,
	price_48h   REAL NOT NULL DEFAULT 0,
	observed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prime_sets (
	set_id    TEXT PRIMARY KEY,
	set_url   TEXT NOT NULL,
	price_90d REAL NOT NULL DEFAULT 0,
	price_48h REAL NOT NULL DEFAULT 0,
	parts     TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS relics (
	relic_id     TEXT PRIMARY KEY,
	relic_url    TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	price_90d    REAL NOT NULL DEFAULT 0,
	price_48h    REAL NOT NULL DEFAULT 0,
	subtypes     TEXT NOT NULL DEFAULT '',
	rewards      TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	triggered_by TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   INTEGER NOT NULL,
	completed_at INTEGER,
	rows_written INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_raw_prices_url_name ON raw_prices(url_name);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT count(*) FROM raw_prices),
		(SELECT count(*) FROM prime_sets),
		(SELECT count(*) FROM relics)`)
	if err := row.Scan(&c.Raw, &c.Sets, &c.Relics); err != nil {
		return Counts{}, eris.Wrap(err, "sqlite: counts")
	}
	return c, nil
}

func (s *SQLiteStore) NewestObservation(ctx context.Context) (*time.Time, error) {
	var unix sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT max(observed_at) FROM raw_prices`).Scan(&unix)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: newest observation")
	}
	if !unix.Valid {
		return nil, nil
	}
	t := time.Unix(unix.Int64, 0).UTC()
	return &t, nil
}

func (s *SQLiteStore) RawPrices(ctx context.Context) ([]model.RawPrice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, url_name, price_90d, price_48h, observed_at
		 FROM raw_prices ORDER BY url_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: raw prices")
	}
	defer rows.Close()

	var records []model.RawPrice
	for rows.Next() {
		var r model.RawPrice
		var unix int64
		if err := rows.Scan(&r.ItemID, &r.URLName, &r.Price90d, &r.Price48h, &unix); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan raw price")
		}
		r.ObservedAt = time.Unix(unix, 0).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SetDocuments(ctx context.Context) ([]model.SetDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT set_id, set_url, price_90d, price_48h, parts
		 FROM prime_sets ORDER BY set_url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: set documents")
	}
	defer rows.Close()

	var docs []model.SetDocument
	for rows.Next() {
		var d model.SetDocument
		var partsJSON string
		if err := rows.Scan(&d.SetID, &d.SetURL, &d.Price.P90d, &d.Price.P48h, &partsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan set document")
		}
		if err := json.Unmarshal([]byte(partsJSON), &d.Parts); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode parts for %s", d.SetURL)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) RelicDocuments(ctx context.Context) ([]model.RelicDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT relic_id, relic_url, display_name, price_90d, price_48h, subtypes, rewards
		 FROM relics ORDER BY relic_url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: relic documents")
	}
	defer rows.Close()

	var docs []model.RelicDocument
	for rows.Next() {
		var d model.RelicDocument
		var rewardsJSON string
		if err := rows.Scan(&d.RelicID, &d.RelicURL, &d.DisplayName, &d.Price.P90d, &d.Price.P48h, &d.Subtypes, &rewardsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan relic document")
		}
		if err := json.Unmarshal([]byte(rewardsJSON), &d.Rewards); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode rewards for %s", d.RelicURL)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// upsertTx runs fn for every element inside one transaction, so a collection
// write applies in full or not at all.
func upsertTx[T any](ctx context.Context, sdb *sql.DB, query string, items []T, bind func(T) ([]any, error)) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	tx, err := sdb.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, item := range items {
		args, err := bind(item)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrap(err, "sqlite: exec upsert")
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return n, nil
}

func (s *SQLiteStore) UpsertRawPrices(ctx context.Context, records []model.RawPrice) (int64, error) {
	return upsertTx(ctx, s.db,
		`INSERT INTO raw_prices (item_id, url_name, price_90d, price_48h, observed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
		 url_name = excluded.url_name, price_90d = excluded.price_90d,
		 price_48h = excluded.price_48h, observed_at = excluded.observed_at`,
		records, func(r model.RawPrice) ([]any, error) {
			return []any{r.ItemID, r.URLName, r.Price90d, r.Price48h, r.ObservedAt.Unix()}, nil
		})
}

func (s *SQLiteStore) UpsertSetDocuments(ctx context.Context, docs []model.SetDocument) (int64, error) {
	return upsertTx(ctx, s.db,
		`INSERT INTO prime_sets (set_id, set_url, price_90d, price_48h, parts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(set_id) DO UPDATE SET
		 set_url = excluded.set_url, price_90d = excluded.price_90d,
		 price_48h = excluded.price_48h, parts = excluded.parts`,
		docs, func(d model.SetDocument) ([]any, error) {
			partsJSON, err := json.Marshal(d.Parts)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: encode parts for %s", d.SetURL)
			}
			return []any{d.SetID, d.SetURL, d.Price.P90d, d.Price.P48h, string(partsJSON)}, nil
		})
}

func (s *SQLiteStore) UpsertRelicDocuments(ctx context.Context, docs []model.RelicDocument) (int64, error) {
	return upsertTx(ctx, s.db,
		`INSERT INTO relics (relic_id, relic_url, display_name, price_90d, price_48h, subtypes, rewards)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(relic_id) DO UPDATE SET
		 relic_url = excluded.relic_url, display_name = excluded.display_name,
		 price_90d = excluded.price_90d, price_48h = excluded.price_48h,
		 subtypes = excluded.subtypes, rewards = excluded.rewards`,
		docs, func(d model.RelicDocument) ([]any, error) {
			rewardsJSON, err := json.Marshal(d.Rewards)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: encode rewards for %s", d.RelicURL)
			}
			return []any{d.RelicID, d.RelicURL, d.DisplayName, d.Price.P90d, d.Price.P48h, d.Subtypes, string(rewardsJSON)}, nil
		})
}

func (s *SQLiteStore) StartRun(ctx context.Context, triggeredBy string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, triggered_by, status, started_at) VALUES (?, ?, ?, ?)`,
		id, triggeredBy, RunStatusRunning, time.Now().Unix(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: start run")
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, rowsWritten int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, completed_at = ?, rows_written = ? WHERE id = ?`,
		RunStatusComplete, time.Now().Unix(), rowsWritten, runID,
	)
	return eris.Wrapf(err, "sqlite: complete run %s", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		RunStatusFailed, time.Now().Unix(), errMsg, runID,
	)
	return eris.Wrapf(err, "sqlite: fail run %s", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, triggered_by, status, started_at, completed_at, rows_written, error
		 FROM sync_runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var started int64
		var completed sql.NullInt64
		var errStr sql.NullString
		if err := rows.Scan(&e.ID, &e.TriggeredBy, &e.Status, &started, &completed, &e.RowsWritten, &errStr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run entry")
		}
		e.StartedAt = time.Unix(started, 0).UTC()
		if completed.Valid {
			t := time.Unix(completed.Int64, 0).UTC()
			e.CompletedAt = &t
		}
		if errStr.Valid {
			e.Error = errStr.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
