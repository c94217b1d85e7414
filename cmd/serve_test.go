package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/model"
	"github.com/squad-relic/relic-sync/internal/relicsync"
	"github.com/squad-relic/relic-sync/internal/store"
)

// stubClient serves a fixed catalog and empty market data.
type stubClient struct {
	items []catalog.Entry
}

func (c *stubClient) Items(ctx context.Context) ([]catalog.Entry, error) { return c.items, nil }
func (c *stubClient) Statistics(ctx context.Context, name string) (*market.Statistics, error) {
	return &market.Statistics{}, nil
}
func (c *stubClient) ItemsInSet(ctx context.Context, name string) ([]market.SetItem, error) {
	return nil, nil
}
func (c *stubClient) DropSources(ctx context.Context, name string) ([]market.DropSource, error) {
	return nil, nil
}

func newTestAPI(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "relic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	client := &stubClient{items: []catalog.Entry{
		{URLName: "lith_a1_relic", ID: "relic1"},
	}}
	engine := relicsync.New(st, client, relicsync.EngineConfig{
		Batch: market.BatchOptions{Delay: time.Millisecond},
	})
	return apiRouter(engine, st), st
}

func TestServeHealth(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeRelics(t *testing.T) {
	router, st := newTestAPI(t)
	_, err := st.UpsertRelicDocuments(context.Background(), []model.RelicDocument{{
		RelicID:     "relic1",
		RelicURL:    "lith_a1_relic",
		DisplayName: "Lith A1 Relic",
		Subtypes:    model.Subtypes,
		Rewards:     []model.RewardEntry{{PartURL: "ash_prime_blueprint", Rarity: model.RarityRare}},
	}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/relics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []model.RelicDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Lith A1 Relic", docs[0].DisplayName)
}

func TestServeState(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var state relicsync.SyncState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.RawPresent)
	assert.False(t, state.RelicsIntact)
}

func TestServeRuns(t *testing.T) {
	router, st := newTestAPI(t)
	id, err := st.StartRun(context.Background(), "http")
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(context.Background(), id, 3))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []store.RunEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
}

func TestServeCORSPreflight(t *testing.T) {
	router, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/relics", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
