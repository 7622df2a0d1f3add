package engine

import (
	"sort"

	"cryptostock/internal/models"
)

// position is the average-cost accounting of one asset over the full trade
// history. It is rebuilt from scratch every cycle.
type position struct {
	name        string
	boughtQty   float64
	boughtTotal float64
	soldQty     float64
	soldTotal   float64
}

func (p *position) traded() bool {
	return p.boughtQty > 0 || p.soldQty > 0
}

// avgBuyPrice is the quantity-weighted mean price over every completed BUY.
func (p *position) avgBuyPrice() float64 {
	if p.boughtQty <= 0 {
		return 0
	}
	return p.boughtTotal / p.boughtQty
}

// realizedPL values every sale against the current average buy price, not
// the average at the time of the sale.
func (p *position) realizedPL() float64 {
	return p.soldTotal - p.soldQty*p.avgBuyPrice()
}

func (p *position) investedCapital() float64 {
	return p.boughtTotal - p.soldTotal
}

// ledgerQuantity is the trade-derived quantity. It is a sanity signal only;
// the snapshot decides how much is held.
func (p *position) ledgerQuantity() float64 {
	return p.boughtQty - p.soldQty
}

// accumulate groups completed BUY and SELL trades by normalized asset id.
// Trades are summed in (date, id) order so floating-point results do not
// depend on the order the ledger returned them in.
func accumulate(trades []models.Trade) map[string]*position {
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		case a.ID != b.ID:
			return a.ID < b.ID
		case a.Total != b.Total:
			return a.Total < b.Total
		default:
			return a.Quantity < b.Quantity
		}
	})

	positions := make(map[string]*position)
	for _, t := range ordered {
		if t.Status != models.TradeStatusCompleted || !t.Kind.MovesAsset() {
			continue
		}
		id := models.NormalizeAssetID(t.AssetID)
		if id == "" {
			continue
		}
		pos, ok := positions[id]
		if !ok {
			pos = &position{}
			positions[id] = pos
		}
		if pos.name == "" {
			pos.name = t.AssetName
		}

		switch t.Kind {
		case models.TradeKindBuy:
			pos.boughtQty += t.Quantity
			pos.boughtTotal += t.Total
		case models.TradeKindSell:
			pos.soldQty += t.Quantity
			pos.soldTotal += t.Total
		}
	}
	return positions
}
