// Package exchangerate fetches currency exchange rates from open.er-api.com with a
// persistent cache in front of it.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/avgdown/internal/clientdata"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the free open.er-api.com endpoint (no key, daily updates).
const DefaultBaseURL = "https://open.er-api.com/v6/latest"

// Quote sources.
const (
	SourceAPI      = "api"
	SourceCache    = "cache"
	SourceStale    = "stale-cache"
	SourceIdentity = "identity"
)

// Quote is a single exchange rate observation.
type Quote struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// Stale reports whether the quote came from an expired cache entry.
func (q Quote) Stale() bool {
	return q.Source == SourceStale
}

// Client for open.er-api.com
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new client. An empty baseURL uses DefaultBaseURL.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "exchangerate").Logger(),
		cacheRepo: cacheRepo,
	}
}

// cachedQuote is the structure stored in the cache
type cachedQuote struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

// apiResponse is the subset of the open.er-api.com payload we read.
type apiResponse struct {
	Result            string             `json:"result"`
	ErrorType         string             `json:"error-type"`
	TimeLastUpdateUTC string             `json:"time_last_update_utc"`
	BaseCode          string             `json:"base_code"`
	Rates             map[string]float64 `json:"rates"`
}

// GetRate returns how many units of to one unit of from buys.
// A fresh cache entry short-circuits the request. When the API fails, an expired
// cache entry is returned instead (marked SourceStale) if one exists.
func (c *Client) GetRate(ctx context.Context, from, to string) (Quote, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return Quote{From: from, To: to, Rate: 1.0, UpdatedAt: time.Now().UTC(), Source: SourceIdentity}, nil
	}

	cacheKey := from + ":" + to

	if q, ok := c.fromCache(ctx, cacheKey, from, to, true); ok {
		c.log.Debug().
			Str("pair", cacheKey).
			Float64("rate", q.Rate).
			Msg("Cache hit")
		return q, nil
	}

	q, err := c.fetch(ctx, from, to)
	if err != nil {
		if stale, ok := c.fromCache(ctx, cacheKey, from, to, false); ok {
			c.log.Warn().
				Err(err).
				Str("pair", cacheKey).
				Float64("rate", stale.Rate).
				Msg("API failed, using stale cached rate")
			return stale, nil
		}
		return Quote{}, err
	}

	if c.cacheRepo != nil {
		cached := cachedQuote{Rate: q.Rate, UpdatedAt: q.UpdatedAt}
		if err := c.cacheRepo.Store(ctx, clientdata.TableExchangeRate, cacheKey, cached, clientdata.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("pair", cacheKey).Msg("Failed to cache exchange rate")
		}
	}

	c.log.Info().
		Str("pair", cacheKey).
		Float64("rate", q.Rate).
		Time("updated_at", q.UpdatedAt).
		Msg("Fetched rate")

	return q, nil
}

func (c *Client) fetch(ctx context.Context, from, to string) (Quote, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, from)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if body.Result != "" && body.Result != "success" {
		return Quote{}, fmt.Errorf("API returned result %q (%s)", body.Result, body.ErrorType)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return Quote{}, fmt.Errorf("rate not found for %s->%s", from, to)
	}
	if rate <= 0 {
		return Quote{}, fmt.Errorf("non-positive rate %v for %s->%s", rate, from, to)
	}

	return Quote{
		From:      from,
		To:        to,
		Rate:      rate,
		UpdatedAt: parseUpdateTime(body.TimeLastUpdateUTC),
		Source:    SourceAPI,
	}, nil
}

// fromCache reads the cached quote. With freshOnly it ignores expired rows.
func (c *Client) fromCache(ctx context.Context, key, from, to string, freshOnly bool) (Quote, bool) {
	if c.cacheRepo == nil {
		return Quote{}, false
	}

	var (
		data []byte
		err  error
	)
	if freshOnly {
		data, err = c.cacheRepo.GetIfFresh(ctx, clientdata.TableExchangeRate, key)
	} else {
		data, err = c.cacheRepo.Get(ctx, clientdata.TableExchangeRate, key)
	}
	if err != nil || data == nil {
		return Quote{}, false
	}

	var cached cachedQuote
	if err := json.Unmarshal(data, &cached); err != nil || cached.Rate <= 0 {
		return Quote{}, false
	}

	source := SourceCache
	if !freshOnly {
		source = SourceStale
	}

	return Quote{From: from, To: to, Rate: cached.Rate, UpdatedAt: cached.UpdatedAt, Source: source}, true
}

// parseUpdateTime reads the RFC1123Z timestamp the API reports ("Mon, 06 Jan 2025 00:02:31 +0000").
// Unparseable values fall back to now.
func parseUpdateTime(raw string) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC1123Z, raw); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse(time.RFC1123, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
