// Package market fetches live quotes and price history from the CoinGecko API.
package market

import (
	"sort"
	"strings"
	"time"

	apperrors "cryptostock/internal/errors"
)

// Quote is the current market state of one asset. Sparkline is ordered oldest first.
type Quote struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	Image         string    `json:"image,omitempty"`
	CurrentPrice  float64   `json:"currentPrice"`
	Change24hPct  float64   `json:"change24hPct"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	MarketCapRank int       `json:"marketCapRank,omitempty"`
	Sparkline     []float64 `json:"sparkline"`
}

// PricePoint is one sample of a price history series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Range selects a price history window.
type Range string

const (
	Range1M Range = "1M"
	Range6M Range = "6M"
	Range1Y Range = "1Y"
)

// ParseRange parses a range key. An empty string selects 1M.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToUpper(strings.TrimSpace(s))); r {
	case "":
		return Range1M, nil
	case Range1M, Range6M, Range1Y:
		return r, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "range must be one of 1M, 6M, 1Y")
}

// Days returns the number of days of history the range covers.
func (r Range) Days() int {
	switch r {
	case Range6M:
		return 180
	case Range1Y:
		return 365
	default:
		return 30
	}
}

// months returns how many monthly buckets the range is reduced to, or 0 when
// the daily series is returned as-is.
func (r Range) months() int {
	switch r {
	case Range6M:
		return 6
	case Range1Y:
		return 12
	default:
		return 0
	}
}

// Summary aggregates one page of market quotes.
type Summary struct {
	Count               int     `json:"count"`
	TotalMarketCap      float64 `json:"totalMarketCap"`
	AverageChange24hPct float64 `json:"averageChange24hPct"`
}

// Summarize computes the total market cap and mean 24h change of quotes.
func Summarize(quotes []Quote) Summary {
	s := Summary{Count: len(quotes)}
	if len(quotes) == 0 {
		return s
	}
	var changeSum float64
	for _, q := range quotes {
		s.TotalMarketCap += q.MarketCap
		changeSum += q.Change24hPct
	}
	s.AverageChange24hPct = changeSum / float64(len(quotes))
	return s
}

// groupByMonth averages points into calendar months (UTC), keeping the most
// recent limit months. Each bucket is stamped with the first instant of its month.
func groupByMonth(points []PricePoint, limit int) []PricePoint {
	type bucket struct {
		start time.Time
		sum   float64
		n     int
	}
	buckets := make(map[time.Time]*bucket)
	for _, p := range points {
		t := p.Timestamp.UTC()
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start}
			buckets[start] = b
		}
		b.sum += p.Price
		b.n++
	}

	grouped := make([]PricePoint, 0, len(buckets))
	for _, b := range buckets {
		grouped = append(grouped, PricePoint{Timestamp: b.start, Price: b.sum / float64(b.n)})
	}
	sort.Slice(grouped, func(i, j int) bool { return grouped[i].Timestamp.Before(grouped[j].Timestamp) })

	if limit > 0 && len(grouped) > limit {
		grouped = grouped[len(grouped)-limit:]
	}
	return grouped
}

// quoteFromSeries derives a quote from a price series: the last point is the
// current price and the change is measured against the first point.
func quoteFromSeries(id string, points []PricePoint) *Quote {
	q := &Quote{ID: id, Name: id, Sparkline: make([]float64, len(points))}
	for i, p := range points {
		q.Sparkline[i] = p.Price
	}
	first, last := points[0].Price, points[len(points)-1].Price
	q.CurrentPrice = last
	if first > 0 {
		q.Change24hPct = (last - first) / first * 100
	}
	return q
}
