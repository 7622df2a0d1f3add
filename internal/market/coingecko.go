package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptostock/internal/cache"
	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
	"cryptostock/internal/metrics"
)

// DefaultBaseURL is the public CoinGecko v3 API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// maxIDsPerRequest is the largest page /coins/markets returns.
const maxIDsPerRequest = 250

// Client fetches quotes and history from CoinGecko. Results are served from
// the quote cache when present.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	cache      *cache.Cache
}

// NewClient creates a CoinGecko client. A nil quoteCache disables caching.
func NewClient(baseURL string, httpClient *http.Client, quoteCache *cache.Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      quoteCache,
	}
}

// coinMarket is one element of the /coins/markets response.
type coinMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	MarketCapRank            int      `json:"market_cap_rank"`
	PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
	SparklineIn7d            struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

func (m coinMarket) quote() Quote {
	q := Quote{
		ID:            m.ID,
		Name:          m.Name,
		Symbol:        strings.ToUpper(m.Symbol),
		Image:         m.Image,
		Change24hPct:  m.PriceChangePercentage24h,
		MarketCap:     m.MarketCap,
		MarketCapRank: m.MarketCapRank,
		Sparkline:     m.SparklineIn7d.Price,
	}
	if m.CurrentPrice != nil {
		q.CurrentPrice = *m.CurrentPrice
	}
	if q.Sparkline == nil {
		q.Sparkline = []float64{}
	}
	return q
}

// marketChart is the /coins/{id}/market_chart response. Each price is a
// [unix millis, price] pair.
type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

func (m marketChart) points() []PricePoint {
	points := make([]PricePoint, 0, len(m.Prices))
	for _, p := range m.Prices {
		points = append(points, PricePoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
		})
	}
	return points
}

// GetQuotes returns quotes for the given asset ids in one batch per 250 ids.
// Ids unknown to CoinGecko, or listed without a price, are absent from the result.
func (c *Client) GetQuotes(ctx context.Context, ids []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(ids))
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := c.cachedQuote(batchKey, id); ok {
			quotes[id] = q
			continue
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(missing))
		params := url.Values{
			"vs_currency":             {"usd"},
			"ids":                     {strings.Join(missing[start:end], ",")},
			"per_page":                {strconv.Itoa(maxIDsPerRequest)},
			"page":                    {"1"},
			"sparkline":               {"true"},
			"price_change_percentage": {"24h"},
		}
		var markets []coinMarket
		if err := c.get(ctx, "markets", "/coins/markets", params, &markets); err != nil {
			return nil, err
		}
		for _, m := range markets {
			if m.CurrentPrice == nil {
				continue
			}
			q := m.quote()
			quotes[q.ID] = q
			c.storeQuote(batchKey, q)
		}
	}

	return quotes, nil
}

// GetQuote resolves a single asset from its one-day market chart. It is the
// fallback for ids the batch endpoint does not return, and is cached apart
// from batch quotes so GetQuotes never reports a fallback price.
func (c *Client) GetQuote(ctx context.Context, id string) (*Quote, error) {
	if q, ok := c.cachedQuote(fallbackKey, id); ok {
		return &q, nil
	}

	params := url.Values{"vs_currency": {"usd"}, "days": {"1"}}
	var chart marketChart
	if err := c.get(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", params, &chart); err != nil {
		return nil, err
	}
	points := chart.points()
	if len(points) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrQuoteNotFound, "no price series for "+id)
	}

	q := quoteFromSeries(id, points)
	c.storeQuote(fallbackKey, *q)
	return q, nil
}

// TopMarkets returns the first page of assets by market cap, with sparkline
// and 24h change.
func (c *Client) TopMarkets(ctx context.Context, perPage int) ([]Quote, error) {
	key := "top:" + strconv.Itoa(perPage)
	if v, ok := c.cacheGet(key); ok {
		return v.([]Quote), nil
	}

	params := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(perPage)},
		"page":                    {"1"},
		"sparkline":               {"true"},
		"price_change_percentage": {"24h"},
	}
	var markets []coinMarket
	if err := c.get(ctx, "markets", "/coins/markets", params, &markets); err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(markets))
	for _, m := range markets {
		q := m.quote()
		quotes = append(quotes, q)
		if m.CurrentPrice != nil {
			c.storeQuote(batchKey, q)
		}
	}
	if c.cache != nil {
		c.cache.Set(key, quotes)
	}
	return quotes, nil
}

// History returns the daily price series for the range. 6M and 1Y are
// reduced to monthly averages.
func (c *Client) History(ctx context.Context, id string, r Range) ([]PricePoint, error) {
	key := "history:" + id + ":" + string(r)
	if v, ok := c.cacheGet(key); ok {
		return v.([]PricePoint), nil
	}

	params := url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(r.Days())},
		"interval":    {"daily"},
	}
	var chart marketChart
	if err := c.get(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", params, &chart); err != nil {
		return nil, err
	}

	points := chart.points()
	if n := r.months(); n > 0 {
		points = groupByMonth(points, n)
	}
	if c.cache != nil {
		c.cache.Set(key, points)
	}
	return points, nil
}

// get issues a GET against the API and decodes the JSON body into out.
// 404 maps to ErrQuoteNotFound; every other failure is ErrSourceUnavailable.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.MarketUpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("fetching %s: %w", endpoint, err))
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.MarketUpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.Wrap(apperrors.ErrQuoteNotFound, fmt.Errorf("fetching %s: %s not found", endpoint, path))
	case resp.StatusCode != http.StatusOK:
		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Get().Warnw("market data rate limited", "endpoint", endpoint, "retry_after", resp.Header.Get("Retry-After"))
		}
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("fetching %s: unexpected status %d", endpoint, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("decoding %s response: %w", endpoint, err))
	}
	return nil
}

func (c *Client) cacheGet(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if ok {
		metrics.MarketCacheRequests.WithLabelValues("hit").Inc()
	} else {
		metrics.MarketCacheRequests.WithLabelValues("miss").Inc()
	}
	return v, ok
}

// Cache key prefixes for quotes by the endpoint that produced them.
const (
	batchKey    = "quote:"
	fallbackKey = "fallback:"
)

func (c *Client) cachedQuote(prefix, id string) (Quote, bool) {
	v, ok := c.cacheGet(prefix + id)
	if !ok {
		return Quote{}, false
	}
	return v.(Quote), true
}

func (c *Client) storeQuote(prefix string, q Quote) {
	if c.cache != nil {
		c.cache.Set(prefix+q.ID, q)
	}
}
