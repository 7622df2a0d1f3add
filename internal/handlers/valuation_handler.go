package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cryptostock/internal/cache"
	"cryptostock/internal/engine"
	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/ledgerclient"
	"cryptostock/internal/logger"
	"cryptostock/internal/metrics"
	"cryptostock/internal/middleware"
	"cryptostock/internal/scheduler"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 50 * time.Second
)

// PortfolioResponse is the result of one reconciliation cycle. On a source
// failure the last good valuation is returned with Stale set.
type PortfolioResponse struct {
	Status    scheduler.Status  `json:"status"`
	Valuation *engine.Valuation `json:"valuation,omitempty"`
	Error     *ErrorDetail      `json:"error,omitempty"`
	Stale     bool              `json:"stale"`
}

// StreamCommand is a client message on the portfolio stream.
type StreamCommand struct {
	Type string `json:"type"`
}

// ValuationHandler serves reconciled portfolio valuations, once per request or
// pushed over a websocket.
type ValuationHandler struct {
	reconciler      engine.Reconciler
	lastGood        *cache.MapCache[string, *engine.Valuation]
	refreshInterval time.Duration
	upgrader        websocket.Upgrader
	logger          *zap.SugaredLogger

	mu      sync.Mutex
	streams map[string]map[*scheduler.Scheduler]struct{}
}

// NewValuationHandler creates a new ValuationHandler. refreshInterval is the
// stream default when the client sends none. An empty allowedOrigins accepts
// any websocket origin.
func NewValuationHandler(reconciler engine.Reconciler, refreshInterval time.Duration, allowedOrigins []string) *ValuationHandler {
	return &ValuationHandler{
		reconciler:      reconciler,
		lastGood:        cache.NewMapCache[string, *engine.Valuation](),
		refreshInterval: scheduler.ClampInterval(refreshInterval),
		upgrader:        websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		logger:          logger.Named("valuation"),
		streams:         make(map[string]map[*scheduler.Scheduler]struct{}),
	}
}

// GetPortfolio handles retrieving the user's reconciled portfolio
// @Summary     Get portfolio valuation
// @Description Run one reconciliation cycle over the ledger holdings, trades and live quotes. When a source is down the last good valuation is returned marked stale.
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} PortfolioResponse "Valuation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Source unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio [get]
func (h *ValuationHandler) GetPortfolio(c *gin.Context) {
	email, err := getEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	valuation, err := h.reconciler.Reconcile(upstreamContext(c), email)
	if err != nil {
		last, ok := h.lastGood.Get(email)
		if !ok || !apperrors.Is(err, apperrors.ErrSourceUnavailable) {
			respondWithError(c, err)
			return
		}
		h.logger.Warnw("serving stale valuation", "user", email, "error", err)
		c.JSON(http.StatusOK, PortfolioResponse{
			Status:    scheduler.StatusError,
			Valuation: last,
			Error:     &ErrorDetail{Code: apperrors.ErrSourceUnavailable.Code, Message: apperrors.ErrSourceUnavailable.Message},
			Stale:     true,
		})
		return
	}

	h.lastGood.Set(email, valuation)
	c.JSON(http.StatusOK, PortfolioResponse{Status: scheduler.StatusReady, Valuation: valuation})
}

// StreamPortfolio handles the portfolio websocket
// @Summary     Stream portfolio valuations
// @Description Upgrade to a websocket that pushes a state after every refresh cycle. Send {"type":"refresh"} to request an immediate cycle. The token may be passed as the access_token query parameter.
// @Tags        portfolio
// @Security    BearerAuth
// @Param       interval query int false "Refresh interval in seconds (10-30)"
// @Success     101 {object} scheduler.State "Switching protocols"
// @Failure     400 {object} ErrorResponse "Invalid interval"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/stream [get]
func (h *ValuationHandler) StreamPortfolio(c *gin.Context) {
	email, err := getEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	interval := h.refreshInterval
	if raw := c.Query("interval"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval must be a positive number of seconds"))
			return
		}
		interval = time.Duration(secs) * time.Second
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "user", email, "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan scheduler.State, 1)
	sched := scheduler.New(
		&bearerReconciler{reconciler: h.reconciler, token: c.GetString(middleware.TokenKey)},
		email,
		interval,
		scheduler.OnUpdate(func(st scheduler.State) {
			if st.Status == scheduler.StatusReady {
				h.lastGood.Set(email, st.Valuation)
			}
			offerLatest(updates, st)
		}),
	)
	h.register(email, sched)
	defer h.unregister(email, sched)

	h.logger.Infow("stream opened", "user", email, "interval", sched.Interval())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		h.writeStream(ctx, conn, updates)
		// Unblocks the read loop when the writer gave up first.
		_ = conn.Close()
	}()

	sched.Start(ctx)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		var cmd StreamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugw("stream read failed", "user", email, "error", err)
			}
			break
		}
		if cmd.Type == "refresh" {
			sched.Refresh()
		}
	}

	cancel()
	sched.Dispose()
	<-writerDone
	h.logger.Infow("stream closed", "user", email)
}

// RefreshUser requests an immediate cycle on every open stream of user.
func (h *ValuationHandler) RefreshUser(user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sched := range h.streams[user] {
		sched.Refresh()
	}
}

func (h *ValuationHandler) register(user string, sched *scheduler.Scheduler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streams[user] == nil {
		h.streams[user] = make(map[*scheduler.Scheduler]struct{})
	}
	h.streams[user][sched] = struct{}{}
}

func (h *ValuationHandler) unregister(user string, sched *scheduler.Scheduler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.streams[user], sched)
	if len(h.streams[user]) == 0 {
		delete(h.streams, user)
	}
}

// writeStream is the only writer on conn.
func (h *ValuationHandler) writeStream(ctx context.Context, conn *websocket.Conn, updates <-chan scheduler.State) {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
			return
		case st := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(st); err != nil {
				h.logger.Debugw("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// offerLatest replaces any undelivered state so a slow client only ever
// receives the newest one.
func offerLatest(ch chan scheduler.State, st scheduler.State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// bearerReconciler forwards the stream's token to the ledger backend on every
// cycle.
type bearerReconciler struct {
	reconciler engine.Reconciler
	token      string
}

func (r *bearerReconciler) Reconcile(ctx context.Context, user string) (*engine.Valuation, error) {
	return r.reconciler.Reconcile(ledgerclient.WithBearerToken(ctx, r.token), user)
}

// upstreamContext returns the request context carrying the caller's token and
// request id for ledger backend calls.
func upstreamContext(c *gin.Context) context.Context {
	ctx := ledgerclient.WithRequestID(c.Request.Context(), c.GetString(middleware.RequestIDKey))
	return ledgerclient.WithBearerToken(ctx, c.GetString(middleware.TokenKey))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
