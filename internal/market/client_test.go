package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *HTTPClient {
	return NewHTTPClient(HTTPOptions{
		BaseURL:   baseURL,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		Burst:     1000,
	})
}

func TestItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"payload":{"items":[
			{"url_name":"titania_prime_set","id":"set1"},
			{"url_name":"lith_a1_relic","id":"r1"}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	items, err := c.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "titania_prime_set", items[0].URLName)
	assert.Equal(t, "r1", items[1].ID)
}

func TestStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/titania_prime_blueprint/statistics", r.URL.Path)
		w.Write([]byte(`{"payload":{
			"statistics_closed":{"90days":[{"avg_price":10.5},{"avg_price":null}]},
			"statistics_live":{"48hours":[{"avg_price":8},{"avg_price":null}]}
		}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	stats, err := c.Statistics(context.Background(), "titania_prime_blueprint")
	require.NoError(t, err)
	require.Len(t, stats.Closed, 2)
	require.Len(t, stats.Live, 2)
	assert.Equal(t, 10.5, *stats.Closed[0].AvgPrice)
	assert.Nil(t, stats.Closed[1].AvgPrice)
}

func TestItemsInSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/titania_prime_blueprint", r.URL.Path)
		w.Write([]byte(`{"payload":{"item":{"items_in_set":[
			{"url_name":"titania_prime_blueprint","id":"p1","ducats":45,
			 "trading_tax":4000,"quantity_for_set":1,
			 "en":{"item_name":"Titania Prime Blueprint"}}
		]}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	items, err := c.ItemsInSet(context.Background(), "titania_prime_blueprint")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 45, items[0].Ducats)
	assert.Equal(t, "Titania Prime Blueprint", items[0].En.ItemName)
}

func TestDropSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/titania_prime_blueprint/dropsources", r.URL.Path)
		w.Write([]byte(`{"payload":{"dropsources":[
			{"relic":"r1,r2","rarity":"uncommon"},
			{"relic":"r3","rarity":"rare"}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sources, err := c.DropSources(context.Background(), "titania_prime_blueprint")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "r1,r2", sources[0].Relic)
	assert.Equal(t, "rare", sources[1].Rarity)
}

func TestGetJSON_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Statistics(context.Background(), "no_such_item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payload": not json`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Items(context.Background())
	require.Error(t, err)
}

func TestStatistics_MissingWindows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payload":{"statistics_closed":{},"statistics_live":{}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	stats, err := c.Statistics(context.Background(), "sparse_item")
	require.NoError(t, err)
	assert.Empty(t, stats.Closed)
	assert.Empty(t, stats.Live)
}
