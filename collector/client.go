// Package collector gathers one-way flight offers from the pricing API,
// one leg at a time, and assembles the dataset the combination engine
// consumes.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/cache"
	"github.com/viafly/viafly/pkg/logger"
)

// Client is a thin client for the prices_for_dates endpoint. One blocking
// request per (route, date); retry and backoff are deliberately absent,
// pacing is the collector's fixed inter-request delay.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	currency   string
	limit      int
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a pricing API client. responseCache may be nil, in which
// case every fetch goes to the network.
func NewClient(cfg config.CollectorConfig, responseCache cache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		currency:   cfg.Currency,
		limit:      cfg.Limit,
		cache:      responseCache,
		cacheTTL:   cfg.CacheTTL,
	}
}

// pricesPage is the wire shape of one API response.
type pricesPage struct {
	Success bool            `json:"success"`
	Data    []combine.Offer `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// FetchFlights requests direct one-way offers for a route on a date. Origin
// and destination are both optional: an empty origin means "from anywhere",
// an empty destination "to anywhere". departureAt may be empty for an
// undated query.
func (c *Client) FetchFlights(ctx context.Context, origin, destination, departureAt string) ([]combine.Offer, error) {
	key := cacheKey(origin, destination, departureAt)
	if c.cache != nil {
		var page pricesPage
		err := cache.GetJSON(ctx, c.cache, key, &page)
		if err == nil {
			return page.Data, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("price cache read failed", "key", key, "error", err)
		}
	}

	page, err := c.fetch(ctx, origin, destination, departureAt)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := cache.SetJSON(ctx, c.cache, key, page, c.cacheTTL); err != nil {
			logger.Warn("price cache write failed", "key", key, "error", err)
		}
	}
	return page.Data, nil
}

func (c *Client) fetch(ctx context.Context, origin, destination, departureAt string) (*pricesPage, error) {
	params := url.Values{}
	params.Set("currency", c.currency)
	params.Set("token", c.token)
	params.Set("direct", "true")
	params.Set("one_way", "true")
	params.Set("unique", "true")
	params.Set("limit", strconv.Itoa(c.limit))
	if origin != "" {
		params.Set("origin", origin)
	}
	if destination != "" {
		params.Set("destination", destination)
	}
	if departureAt != "" {
		params.Set("departure_at", departureAt)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build prices request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prices request %s->%s on %s: %w",
			orAny(origin), orAny(destination), departureAt, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("prices request %s->%s on %s: status %d: %s",
			orAny(origin), orAny(destination), departureAt, resp.StatusCode, body)
	}

	var page pricesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode prices response: %w", err)
	}
	if !page.Success && page.Error != "" {
		return nil, fmt.Errorf("prices API error: %s", page.Error)
	}
	return &page, nil
}

func cacheKey(origin, destination, departureAt string) string {
	return orAny(origin) + ":" + orAny(destination) + ":" + departureAt
}

func orAny(code string) string {
	if code == "" {
		return "ANY"
	}
	return code
}
