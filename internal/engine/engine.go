// Package engine reconciles a user's holdings snapshot, trade ledger and live
// market prices into a portfolio valuation.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
	"cryptostock/internal/market"
	"cryptostock/internal/metrics"
	"cryptostock/internal/models"
)

// LedgerSource supplies the ledger of record for a user.
type LedgerSource interface {
	GetHoldingsSnapshot(ctx context.Context, user string) (models.HoldingsSnapshot, error)
	GetTrades(ctx context.Context, user string) ([]models.Trade, error)
}

// PriceSource supplies live market quotes.
type PriceSource interface {
	GetQuotes(ctx context.Context, ids []string) (map[string]market.Quote, error)
	GetQuote(ctx context.Context, id string) (*market.Quote, error)
}

// Reconciler runs one reconciliation cycle for a user.
type Reconciler interface {
	Reconcile(ctx context.Context, user string) (*Valuation, error)
}

const defaultFallbackConcurrency = 4

// Engine is the ReconciliationEngine. It holds no per-user state and is safe
// for concurrent use.
type Engine struct {
	ledger              LedgerSource
	prices              PriceSource
	logger              *zap.SugaredLogger
	fallbackConcurrency int
	now                 func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFallbackConcurrency bounds concurrent single-asset lookups.
func WithFallbackConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.fallbackConcurrency = n
		}
	}
}

// WithClock overrides the clock used to stamp valuations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the engine logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over the given sources.
func New(ledger LedgerSource, prices PriceSource, opts ...Option) *Engine {
	e := &Engine{
		ledger:              ledger,
		prices:              prices,
		logger:              logger.Named("engine"),
		fallbackConcurrency: defaultFallbackConcurrency,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile runs one cycle: it fetches the snapshot and the trade ledger
// concurrently, resolves quotes for the held assets, and computes the
// valuation. Any source failure aborts the cycle with ErrSourceUnavailable and
// no partial result. Assets that cannot be priced do not abort the cycle.
func (e *Engine) Reconcile(ctx context.Context, user string) (*Valuation, error) {
	start := time.Now()
	defer func() { metrics.EngineCycleDuration.Observe(time.Since(start).Seconds()) }()

	var (
		held   models.HoldingsSnapshot
		trades []models.Trade
		quotes map[string]ResolvedQuote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot, err := e.ledger.GetHoldingsSnapshot(gctx, user)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrPortfolioNotFound) {
				return sourceUnavailable("holdings snapshot", err)
			}
			snapshot = models.HoldingsSnapshot{}
		}
		held = heldQuantities(snapshot)

		resolved, err := e.resolveQuotes(gctx, user, assetIDs(held))
		if err != nil {
			return err
		}
		quotes = resolved
		return nil
	})
	g.Go(func() error {
		ledger, err := e.ledger.GetTrades(gctx, user)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return sourceUnavailable("trades", err)
		}
		trades = ledger
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.EngineCycles.WithLabelValues("error").Inc()
		e.logger.Warnw("reconciliation cycle failed", "user", user, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		metrics.EngineCycles.WithLabelValues("error").Inc()
		return nil, sourceUnavailable("cycle", err)
	}

	v := Compute(held, trades, quotes, e.now())

	for _, h := range v.Holdings {
		metrics.QuoteResolutions.WithLabelValues(string(h.PriceSource)).Inc()
		if h.QuantityDrift {
			e.logger.Debugw("snapshot quantity differs from ledger",
				"user", user, "asset", h.AssetID, "snapshot", h.Quantity, "ledger", h.LedgerQuantity)
		}
	}
	if len(v.UnpricedAssets) > 0 {
		metrics.EngineCycles.WithLabelValues("partial").Inc()
		e.logger.Warnw("holdings valued without price",
			"code", apperrors.ErrPartialPriceData.Code, "user", user, "assets", v.UnpricedAssets)
	} else {
		metrics.EngineCycles.WithLabelValues("ok").Inc()
	}

	e.logger.Debugw("reconciliation cycle complete",
		"user", user,
		"holdings", len(v.Holdings),
		"total_value", v.Totals.TotalValue,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return v, nil
}

// resolveQuotes prices every id through the batch, fallback, unavailable
// cascade. Only a failed batch call is an error.
func (e *Engine) resolveQuotes(ctx context.Context, user string, ids []string) (map[string]ResolvedQuote, error) {
	resolved := make(map[string]ResolvedQuote, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	batch, err := e.prices.GetQuotes(ctx, ids)
	if err != nil {
		return nil, sourceUnavailable("batch quotes", err)
	}

	var missing []string
	for _, id := range ids {
		if q, ok := batch[id]; ok {
			resolved[id] = ResolvedQuote{Quote: q, State: QuoteBatch}
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.fallbackConcurrency)
	for _, id := range missing {
		g.Go(func() error {
			q, err := e.prices.GetQuote(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil || q == nil {
				e.logger.Infow("fallback quote lookup failed", "user", user, "asset", id, "error", err)
				resolved[id] = ResolvedQuote{Quote: market.Quote{ID: id}, State: QuoteUnavailable}
				return nil
			}
			resolved[id] = ResolvedQuote{Quote: *q, State: QuoteFallback}
			return nil
		})
	}
	_ = g.Wait()

	return resolved, nil
}

func assetIDs(held models.HoldingsSnapshot) []string {
	ids := make([]string, 0, len(held))
	for id := range held {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sourceUnavailable(what string, err error) error {
	if apperrors.Is(err, apperrors.ErrSourceUnavailable) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("fetching %s: %w", what, err))
}
