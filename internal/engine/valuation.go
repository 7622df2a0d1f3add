package engine

import (
	"math"
	"sort"
	"time"

	"cryptostock/internal/market"
	"cryptostock/internal/models"
)

// QuoteState records how an asset's price was resolved.
type QuoteState string

const (
	// QuoteBatch: the asset was in the batch quote response.
	QuoteBatch QuoteState = "batch"
	// QuoteFallback: the batch omitted the asset and the single-asset lookup found it.
	QuoteFallback QuoteState = "fallback"
	// QuoteUnavailable: neither lookup priced the asset; it is valued at zero.
	QuoteUnavailable QuoteState = "unavailable"
)

// ResolvedQuote is the outcome of price resolution for one asset.
type ResolvedQuote struct {
	Quote market.Quote
	State QuoteState
}

// EnrichedHolding is the valuation of one held asset. It is recomputed every
// cycle and never persisted.
type EnrichedHolding struct {
	AssetID          string     `json:"assetId"`
	Name             string     `json:"name"`
	Symbol           string     `json:"symbol"`
	Quantity         float64    `json:"quantity"`
	CurrentPrice     float64    `json:"currentPrice"`
	MarketValue      float64    `json:"marketValue"`
	AvgBuyPrice      float64    `json:"avgBuyPrice"`
	InvestedCapital  float64    `json:"investedCapital"`
	UnrealizedPL     float64    `json:"unrealizedPL"`
	RealizedPL       float64    `json:"realizedPL"`
	TotalPL          float64    `json:"totalPL"`
	AllocationPct    float64    `json:"allocationPct"`
	Change24hPct     float64    `json:"change24hPct"`
	Sparkline        []float64  `json:"sparkline"`
	PriceUnavailable bool       `json:"priceUnavailable"`
	PriceSource      QuoteState `json:"priceSource"`
	LedgerQuantity   float64    `json:"ledgerQuantity"`
	QuantityDrift    bool       `json:"quantityDrift"`
}

// Totals aggregates every enriched holding.
type Totals struct {
	TotalValue        float64 `json:"totalValue"`
	TotalInvested     float64 `json:"totalInvested"`
	TotalUnrealizedPL float64 `json:"totalUnrealizedPL"`
	TotalRealizedPL   float64 `json:"totalRealizedPL"`
	TotalPL           float64 `json:"totalPL"`
}

// Valuation is the output of one reconciliation cycle.
type Valuation struct {
	Holdings       []EnrichedHolding `json:"holdings"`
	Totals         Totals            `json:"totals"`
	UnpricedAssets []string          `json:"unpricedAssets"`
	ComputedAt     time.Time         `json:"computedAt"`
}

// driftTolerance is the relative difference between snapshot and ledger
// quantities below which they are considered equal.
const driftTolerance = 1e-9

// Compute merges a holdings snapshot, the trade ledger and resolved quotes
// into a valuation. It is pure: the same inputs always give the same output,
// whatever the order of trades.
//
// Snapshot quantities are authoritative. Trades only feed the average-cost
// accounting. Assets missing from quotes are valued as unavailable.
func Compute(snapshot models.HoldingsSnapshot, trades []models.Trade, quotes map[string]ResolvedQuote, at time.Time) *Valuation {
	held := heldQuantities(snapshot)
	positions := accumulate(trades)

	v := &Valuation{
		Holdings:       make([]EnrichedHolding, 0, len(held)),
		UnpricedAssets: []string{},
		ComputedAt:     at,
	}

	for id, qty := range held {
		pos := positions[id]
		if pos == nil {
			pos = &position{}
		}
		rq, ok := quotes[id]
		if !ok {
			rq = ResolvedQuote{Quote: market.Quote{ID: id}, State: QuoteUnavailable}
		}

		h := EnrichedHolding{
			AssetID:          id,
			Name:             holdingName(id, rq, pos),
			Symbol:           rq.Quote.Symbol,
			Quantity:         qty,
			AvgBuyPrice:      pos.avgBuyPrice(),
			InvestedCapital:  pos.investedCapital(),
			RealizedPL:       pos.realizedPL(),
			Sparkline:        []float64{},
			PriceSource:      rq.State,
			PriceUnavailable: rq.State == QuoteUnavailable,
			LedgerQuantity:   pos.ledgerQuantity(),
		}
		if pos.traded() {
			h.QuantityDrift = math.Abs(h.LedgerQuantity-qty) > driftTolerance*math.Max(1, qty)
		}
		if !h.PriceUnavailable {
			h.CurrentPrice = math.Max(rq.Quote.CurrentPrice, 0)
			h.Change24hPct = rq.Quote.Change24hPct
			if rq.Quote.Sparkline != nil {
				h.Sparkline = rq.Quote.Sparkline
			}
		} else {
			v.UnpricedAssets = append(v.UnpricedAssets, id)
		}

		h.MarketValue = qty * h.CurrentPrice
		h.UnrealizedPL = h.MarketValue - qty*h.AvgBuyPrice
		h.TotalPL = h.RealizedPL + h.UnrealizedPL

		v.Holdings = append(v.Holdings, h)
	}

	for _, h := range v.Holdings {
		v.Totals.TotalValue += h.MarketValue
		v.Totals.TotalInvested += h.InvestedCapital
		v.Totals.TotalUnrealizedPL += h.UnrealizedPL
		v.Totals.TotalRealizedPL += h.RealizedPL
		v.Totals.TotalPL += h.TotalPL
	}

	if v.Totals.TotalValue > 0 {
		for i := range v.Holdings {
			v.Holdings[i].AllocationPct = v.Holdings[i].MarketValue / v.Totals.TotalValue * 100
		}
	}

	sort.Slice(v.Holdings, func(i, j int) bool {
		a, b := v.Holdings[i], v.Holdings[j]
		if a.MarketValue != b.MarketValue {
			return a.MarketValue > b.MarketValue
		}
		return a.AssetID < b.AssetID
	})
	sort.Strings(v.UnpricedAssets)

	return v
}

// heldQuantities normalizes snapshot keys and drops assets whose quantity is
// not positive. Keys that normalize to the same id are summed first.
func heldQuantities(snapshot models.HoldingsSnapshot) map[string]float64 {
	merged := make(map[string]float64, len(snapshot))
	for key, qty := range snapshot {
		id := models.NormalizeAssetID(key)
		if id == "" || math.IsNaN(qty) {
			continue
		}
		merged[id] += qty
	}
	for id, qty := range merged {
		if qty <= 0 {
			delete(merged, id)
		}
	}
	return merged
}

func holdingName(id string, rq ResolvedQuote, pos *position) string {
	if rq.State == QuoteBatch && rq.Quote.Name != "" {
		return rq.Quote.Name
	}
	if pos.name != "" {
		return pos.name
	}
	if rq.Quote.Name != "" {
		return rq.Quote.Name
	}
	return id
}
