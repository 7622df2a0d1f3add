package ledgerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
	"cryptostock/internal/testutil"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", server.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetHoldingsSnapshot_Success(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/portfolio/alice@example.com" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer token header, got %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-7" {
			t.Errorf("expected request id header, got %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]float64{"bitcoin": 2, "ethereum": 0.5})
	})

	ctx := WithBearerToken(WithRequestID(context.Background(), "req-7"), "tok-1")
	snapshot, err := c.GetHoldingsSnapshot(ctx, "alice@example.com")
	testutil.AssertNoError(t, err)
	if len(snapshot) != 2 || snapshot["bitcoin"] != 2 || snapshot["ethereum"] != 0.5 {
		t.Errorf("unexpected snapshot: %v", snapshot)
	}
}

func notFoundBody(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]string{"code": code, "message": "not found"},
	})
}

func TestGetHoldingsSnapshot_NotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		notFoundBody(w, "PORTFOLIO_NOT_FOUND")
	})

	_, err := c.GetHoldingsSnapshot(context.Background(), "nobody@example.com")
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
}

func TestGetHoldingsSnapshot_NullBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	})

	snapshot, err := c.GetHoldingsSnapshot(context.Background(), "alice@example.com")
	testutil.AssertNoError(t, err)
	if snapshot == nil || len(snapshot) != 0 {
		t.Errorf("expected empty non-nil snapshot, got %v", snapshot)
	}
}

func TestMissingLedgerRouteIsUnavailable(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ctx := context.Background()

	_, err := c.GetHoldingsSnapshot(ctx, "alice@example.com")
	testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")

	_, err = c.GetWallet(ctx, "alice@example.com")
	testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")

	_, err = c.GetTrades(ctx, "alice@example.com")
	testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")
}

func TestGetTrades_Success(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trades/alice@example.com" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "t1", "email": "alice@example.com", "coinId": "bitcoin", "coinName": "Bitcoin", "type": "BUY",
				"quantity": 1, "price": 10000, "total": 10000, "status": "Completed", "date": date.Format(time.RFC3339)},
		})
	})

	trades, err := c.GetTrades(context.Background(), "alice@example.com")
	testutil.AssertNoError(t, err)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.AssetID != "bitcoin" || tr.Kind != models.TradeKindBuy || tr.UnitPrice != 10000 || tr.Status != models.TradeStatusCompleted {
		t.Errorf("trade mismatch: %+v", tr)
	}
	if !tr.Date.Equal(date) {
		t.Errorf("expected date %v, got %v", date, tr.Date)
	}
}

func TestGetTrades_ServerError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetTrades(context.Background(), "alice@example.com")
	testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")
}

func TestGetTrades_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(url, http.DefaultClient)
	_, err := c.GetTrades(context.Background(), "alice@example.com")
	testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")
}

func TestGetTradeHistory_PassesFilters(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/history/alice@example.com" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if q.Get("status") != "Pending" || q.Get("page") != "2" || q.Get("page_size") != "20" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, pagination.NewPageResponse([]models.Trade{{ID: "t9"}}, 2, 20, 21))
	})

	resp, err := c.GetTradeHistory(context.Background(), "alice@example.com", models.TradeStatusPending, pagination.PageRequest{Page: 2})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 21 || resp.TotalPages != 2 || len(resp.Data) != 1 {
		t.Errorf("unexpected page: %+v", resp)
	}
}

func TestGetWallet(t *testing.T) {
	t.Run("returns_balance", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"email": "alice@example.com", "balanceUsd": 1234.5})
		})

		wallet, err := c.GetWallet(context.Background(), "alice@example.com")
		testutil.AssertNoError(t, err)
		if wallet.BalanceUSD != 1234.5 {
			t.Errorf("expected 1234.5, got %v", wallet.BalanceUSD)
		}
	})

	t.Run("returns_wallet_not_found_on_404", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			notFoundBody(w, "WALLET_NOT_FOUND")
		})

		_, err := c.GetWallet(context.Background(), "alice@example.com")
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestUpdateWallet_SendsBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wallet/update" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var body models.WalletBalance
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.Email != "alice@example.com" || body.BalanceUSD != 500 {
			t.Errorf("unexpected body: %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateWallet(context.Background(), models.WalletBalance{Email: "alice@example.com", BalanceUSD: 500})
	testutil.AssertNoError(t, err)
}

func TestAppendTrade_ReturnsStoredTrade(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var trade models.Trade
		_ = json.NewDecoder(r.Body).Decode(&trade)
		trade.ID = "stored-id"
		writeJSON(w, http.StatusCreated, trade)
	})

	stored, err := c.AppendTrade(context.Background(), &models.Trade{Email: "alice@example.com", Kind: models.TradeKindDeposit, Total: 100})
	testutil.AssertNoError(t, err)
	if stored.ID != "stored-id" || stored.Total != 100 {
		t.Errorf("unexpected stored trade: %+v", stored)
	}
}

func TestUpdatePortfolio_KeepsBackendErrorCode(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"code": "INSUFFICIENT_HOLDINGS", "message": "Insufficient holdings for this sale"},
		})
	})

	err := c.UpdatePortfolio(context.Background(), &models.Trade{Kind: models.TradeKindSell})
	testutil.AssertAppError(t, err, "INSUFFICIENT_HOLDINGS")
	if !apperrors.Is(err, apperrors.ErrInsufficientHoldings) {
		t.Error("expected error to match ErrInsufficientHoldings")
	}
}

func TestDecodeError_UnauthorizedWithoutBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetTrades(context.Background(), "alice@example.com")
	testutil.AssertAppError(t, err, "UNAUTHORIZED")
}
