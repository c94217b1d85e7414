// Package market talks to the remote market-data API: four read-only JSON
// endpoints, consumed under a strict concurrency and pacing budget.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/squad-relic/relic-sync/internal/catalog"
)

// Client is the read surface of the remote API.
type Client interface {
	// Items fetches the full catalog, the source of truth for one run.
	Items(ctx context.Context) ([]catalog.Entry, error)

	// Statistics fetches the raw price history of one item.
	Statistics(ctx context.Context, name string) (*Statistics, error)

	// ItemsInSet fetches the set listing an item belongs to.
	ItemsInSet(ctx context.Context, name string) ([]SetItem, error)

	// DropSources fetches the drop listings of one item.
	DropSources(ctx context.Context, name string) ([]DropSource, error)
}

// HTTPOptions configures the HTTP client.
type HTTPOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateLimit bounds the request rate against the API host. This is an
	// upstream courtesy on top of the fan-out pacing, not the pacing itself.
	RateLimit rate.Limit
	Burst     int
}

// HTTPClient implements Client over net/http. A failed call is isolated to
// its item: no retries here, the caller decides whether to skip or recompute
// on the next run.
type HTTPClient struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPClient creates a client with sane defaults for any unset option.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.warframe.market/v1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "relic-sync/1.0"
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
	}
}

// getJSON performs one GET and decodes the body. A non-success status and a
// malformed body are the same failure class to callers.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "market: rate limiter wait")
	}

	reqURL := c.opts.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "market: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "market: GET %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("market: unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "market: decode %s", path)
	}
	return nil
}

func (c *HTTPClient) Items(ctx context.Context) ([]catalog.Entry, error) {
	var env itemsEnvelope
	if err := c.getJSON(ctx, "/items", &env); err != nil {
		return nil, err
	}
	return env.Payload.Items, nil
}

func (c *HTTPClient) Statistics(ctx context.Context, name string) (*Statistics, error) {
	var env statisticsEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/items/%s/statistics", url.PathEscape(name)), &env); err != nil {
		return nil, err
	}
	return &Statistics{
		Closed: env.Payload.StatisticsClosed[closedWindow],
		Live:   env.Payload.StatisticsLive[liveWindow],
	}, nil
}

func (c *HTTPClient) ItemsInSet(ctx context.Context, name string) ([]SetItem, error) {
	var env itemEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/items/%s", url.PathEscape(name)), &env); err != nil {
		return nil, err
	}
	return env.Payload.Item.ItemsInSet, nil
}

func (c *HTTPClient) DropSources(ctx context.Context, name string) ([]DropSource, error) {
	var env dropsourcesEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/items/%s/dropsources", url.PathEscape(name)), &env); err != nil {
		return nil, err
	}
	return env.Payload.Dropsources, nil
}
