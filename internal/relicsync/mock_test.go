package relicsync

import (
	"context"
	"fmt"
	"time"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/model"
	"github.com/squad-relic/relic-sync/internal/store"
)

// memStore is an in-memory Store so the engine tests can observe exactly
// which writes a run performs.
type memStore struct {
	raw    map[string]model.RawPrice
	sets   map[string]model.SetDocument
	relics map[string]model.RelicDocument
	runs   []store.RunEntry

	rawWrites   int
	setWrites   int
	relicWrites int

	failWrites error
}

func newMemStore() *memStore {
	return &memStore{
		raw:    map[string]model.RawPrice{},
		sets:   map[string]model.SetDocument{},
		relics: map[string]model.RelicDocument{},
	}
}

func (m *memStore) writeCount() int { return m.rawWrites + m.setWrites + m.relicWrites }

func (m *memStore) Counts(ctx context.Context) (store.Counts, error) {
	return store.Counts{
		Raw:    int64(len(m.raw)),
		Sets:   int64(len(m.sets)),
		Relics: int64(len(m.relics)),
	}, nil
}

func (m *memStore) NewestObservation(ctx context.Context) (*time.Time, error) {
	var newest *time.Time
	for _, r := range m.raw {
		t := r.ObservedAt
		if newest == nil || t.After(*newest) {
			newest = &t
		}
	}
	return newest, nil
}

func (m *memStore) RawPrices(ctx context.Context) ([]model.RawPrice, error) {
	out := make([]model.RawPrice, 0, len(m.raw))
	for _, r := range m.raw {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) SetDocuments(ctx context.Context) ([]model.SetDocument, error) {
	out := make([]model.SetDocument, 0, len(m.sets))
	for _, d := range m.sets {
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) RelicDocuments(ctx context.Context) ([]model.RelicDocument, error) {
	out := make([]model.RelicDocument, 0, len(m.relics))
	for _, d := range m.relics {
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) UpsertRawPrices(ctx context.Context, records []model.RawPrice) (int64, error) {
	if m.failWrites != nil {
		return 0, m.failWrites
	}
	m.rawWrites++
	for _, r := range records {
		m.raw[r.ItemID] = r
	}
	return int64(len(records)), nil
}

func (m *memStore) UpsertSetDocuments(ctx context.Context, docs []model.SetDocument) (int64, error) {
	if m.failWrites != nil {
		return 0, m.failWrites
	}
	m.setWrites++
	for _, d := range docs {
		m.sets[d.SetID] = d
	}
	return int64(len(docs)), nil
}

func (m *memStore) UpsertRelicDocuments(ctx context.Context, docs []model.RelicDocument) (int64, error) {
	if m.failWrites != nil {
		return 0, m.failWrites
	}
	m.relicWrites++
	for _, d := range docs {
		m.relics[d.RelicID] = d
	}
	return int64(len(docs)), nil
}

func (m *memStore) StartRun(ctx context.Context, triggeredBy string) (string, error) {
	id := fmt.Sprintf("run-%d", len(m.runs)+1)
	m.runs = append(m.runs, store.RunEntry{ID: id, TriggeredBy: triggeredBy, Status: store.RunStatusRunning, StartedAt: time.Now()})
	return id, nil
}

func (m *memStore) CompleteRun(ctx context.Context, runID string, rowsWritten int64) error {
	for i := range m.runs {
		if m.runs[i].ID == runID {
			m.runs[i].Status = store.RunStatusComplete
			m.runs[i].RowsWritten = rowsWritten
		}
	}
	return nil
}

func (m *memStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	for i := range m.runs {
		if m.runs[i].ID == runID {
			m.runs[i].Status = store.RunStatusFailed
			m.runs[i].Error = errMsg
		}
	}
	return nil
}

func (m *memStore) ListRuns(ctx context.Context, limit int) ([]store.RunEntry, error) {
	return m.runs, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

// mockClient serves canned market responses.
type mockClient struct {
	items    []catalog.Entry
	itemsErr error

	stats       map[string]*market.Statistics
	details     map[string][]market.SetItem
	dropsources map[string][]market.DropSource

	statsErr map[string]error
}

func (c *mockClient) Items(ctx context.Context) ([]catalog.Entry, error) {
	return c.items, c.itemsErr
}

func (c *mockClient) Statistics(ctx context.Context, name string) (*market.Statistics, error) {
	if err, ok := c.statsErr[name]; ok {
		return nil, err
	}
	if s, ok := c.stats[name]; ok {
		return s, nil
	}
	return &market.Statistics{}, nil
}

func (c *mockClient) ItemsInSet(ctx context.Context, name string) ([]market.SetItem, error) {
	return c.details[name], nil
}

func (c *mockClient) DropSources(ctx context.Context, name string) ([]market.DropSource, error) {
	return c.dropsources[name], nil
}
