// Package ledgerclient provides an HTTP client for the ledger backend: the
// holdings snapshot, the trade ledger and the wallet balance of record.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
)

type tokenKey struct{}

// WithBearerToken returns a context whose ledger requests carry token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type requestIDKey struct{}

// WithRequestID returns a context whose ledger requests carry id as
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Client communicates with the ledger backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new ledger backend client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetHoldingsSnapshot fetches the user's per-asset quantities. A user without
// a portfolio yields ErrPortfolioNotFound.
func (c *Client) GetHoldingsSnapshot(ctx context.Context, user string) (models.HoldingsSnapshot, error) {
	var snapshot models.HoldingsSnapshot
	if err := c.do(ctx, http.MethodGet, "/portfolio/"+url.PathEscape(user), nil, &snapshot, apperrors.ErrPortfolioNotFound); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = models.HoldingsSnapshot{}
	}
	return snapshot, nil
}

// GetTrades fetches the user's full trade ledger in no particular order.
func (c *Client) GetTrades(ctx context.Context, user string) ([]models.Trade, error) {
	var trades []models.Trade
	if err := c.do(ctx, http.MethodGet, "/trades/"+url.PathEscape(user), nil, &trades, apperrors.ErrNotFound); err != nil {
		return nil, err
	}
	return trades, nil
}

// GetTradeHistory fetches one page of the user's trades, newest first. An
// empty status returns every status.
func (c *Client) GetTradeHistory(ctx context.Context, user string, status models.TradeStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error) {
	params := page.Values()
	if status != "" {
		params.Set("status", string(status))
	}

	var resp pagination.PageResponse[models.Trade]
	path := "/history/" + url.PathEscape(user) + "?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, apperrors.ErrNotFound); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWallet fetches the user's cash balance. A user without a wallet yields
// ErrWalletNotFound.
func (c *Client) GetWallet(ctx context.Context, user string) (*models.WalletBalance, error) {
	var wallet models.WalletBalance
	if err := c.do(ctx, http.MethodGet, "/wallet/"+url.PathEscape(user), nil, &wallet, apperrors.ErrWalletNotFound); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// UpdateWallet sets the user's cash balance.
func (c *Client) UpdateWallet(ctx context.Context, balance models.WalletBalance) error {
	return c.do(ctx, http.MethodPost, "/wallet/update", balance, nil, apperrors.ErrWalletNotFound)
}

// AppendTrade records a new ledger entry and returns it as stored.
func (c *Client) AppendTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	var stored models.Trade
	if err := c.do(ctx, http.MethodPost, "/trades", trade, &stored, apperrors.ErrNotFound); err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdatePortfolio applies a BUY or SELL to the user's holdings.
func (c *Client) UpdatePortfolio(ctx context.Context, trade *models.Trade) error {
	return c.do(ctx, http.MethodPost, "/portfolio/update", trade, nil, apperrors.ErrPortfolioNotFound)
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil. A 404 carrying the backend's error body maps to notFound; a bare
// 404 means the route itself is missing and is ErrSourceUnavailable. Other
// failures are decoded from the backend's error body when possible.
func (c *Client) do(ctx context.Context, method, path string, body, out any, notFound *apperrors.AppError) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("marshaling request: %w", err))
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		if _, ok := readBackendError(resp); !ok {
			return apperrors.Wrap(apperrors.ErrSourceUnavailable,
				fmt.Errorf("%s %s: no such ledger route (check LEDGER_API_URL)", method, path))
		}
		return notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("decoding %s response: %w", path, err))
	}
	return nil
}

// decodeError turns a non-2xx response into an AppError. 4xx bodies in the
// {"error":{"code","message"}} shape keep their code so callers can tell
// INSUFFICIENT_HOLDINGS from FORBIDDEN.
func decodeError(resp *http.Response, method, path string) error {
	statusErr := fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	if resp.StatusCode >= 500 {
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, statusErr)
	}

	body, ok := readBackendError(resp)
	if !ok {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return apperrors.Wrap(apperrors.ErrUnauthorized, statusErr)
		case http.StatusForbidden:
			return apperrors.Wrap(apperrors.ErrForbidden, statusErr)
		}
		return apperrors.Wrap(apperrors.ErrSourceUnavailable, statusErr)
	}
	return &apperrors.AppError{
		Code:       body.Code,
		Message:    body.Message,
		StatusCode: resp.StatusCode,
		Internal:   statusErr,
	}
}

// backendError is the error object the ledger backend writes.
type backendError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// readBackendError decodes a {"error":{"code","message"}} body. ok is false
// for any other body, such as gin's plain-text route-not-found page.
func readBackendError(resp *http.Response) (backendError, bool) {
	var body struct {
		Error backendError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Code == "" {
		return backendError{}, false
	}
	return body.Error, true
}
