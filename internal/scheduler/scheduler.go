// Package scheduler drives periodic reconciliation cycles for one consumer,
// such as an open dashboard stream.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cryptostock/internal/engine"
	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
	"cryptostock/internal/metrics"
)

// Bounds of the refresh interval; ClampInterval moves values outside them
// to the nearest bound.
const (
	// MinInterval is the shortest period between scheduled cycles.
	MinInterval = 10 * time.Second
	// MaxInterval is the longest period between scheduled cycles.
	MaxInterval = 30 * time.Second
)

// Status is the lifecycle state of the latest cycle.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is the committed result of the most recent cycle. On error the last
// good valuation is kept and marked stale.
type State struct {
	Status        Status            `json:"status"`
	Valuation     *engine.Valuation `json:"valuation,omitempty"`
	ErrorCode     string            `json:"errorCode,omitempty"`
	Error         string            `json:"error,omitempty"`
	Stale         bool              `json:"stale"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	LastSuccessAt *time.Time        `json:"lastSuccessAt,omitempty"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// OnUpdate registers a callback invoked with every committed state. It runs on
// the cycle goroutine and must not call back into the scheduler.
func OnUpdate(fn func(State)) Option {
	return func(s *Scheduler) { s.onUpdate = fn }
}

// WithClock overrides the clock used to stamp states.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger overrides the scheduler logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler re-runs reconciliation for one user on a fixed interval. At most
// one cycle is in flight at a time.
type Scheduler struct {
	reconciler engine.Reconciler
	user       string
	interval   time.Duration
	onUpdate   func(State)
	now        func() time.Time
	logger     *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	inFlight atomic.Bool
	refresh  chan struct{}
	started  atomic.Bool
	wg       sync.WaitGroup

	mu       sync.Mutex
	state    State
	disposed bool
}

// ClampInterval bounds a refresh interval to [MinInterval, MaxInterval].
// Zero selects MinInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	default:
		return d
	}
}

// New creates a scheduler for user. It does nothing until Start is called.
func New(reconciler engine.Reconciler, user string, interval time.Duration, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		reconciler: reconciler,
		user:       user,
		interval:   ClampInterval(interval),
		now:        time.Now,
		logger:     logger.Named("scheduler"),
		ctx:        ctx,
		cancel:     cancel,
		refresh:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Status: StatusLoading, UpdatedAt: s.now()}
	return s
}

// Interval returns the effective refresh interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start runs one cycle immediately and then one per tick until ctx is done or
// Dispose is called. Calling Start more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	stop := context.AfterFunc(ctx, s.cancel)
	s.wg.Add(1)
	go func() {
		defer stop()
		s.loop()
	}()
}

// Refresh requests an immediate cycle. It returns false when a cycle is already
// in flight or the scheduler is disposed.
func (s *Scheduler) Refresh() bool {
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed || s.inFlight.Load() {
		return false
	}

	select {
	case s.refresh <- struct{}{}:
	default:
	}
	return true
}

// Dispose stops the ticker, cancels any in-flight cycle and waits for it to
// exit. No state change or callback happens after Dispose returns.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// State returns the most recently committed state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.trigger() {
				metrics.SchedulerSkippedTicks.Inc()
				s.logger.Debugw("tick skipped, cycle still in flight", "user", s.user)
			}
		case <-s.refresh:
			s.trigger()
		}
	}
}

// trigger starts a cycle unless one is already in flight. It is only called
// from the loop goroutine, which keeps the WaitGroup above zero.
func (s *Scheduler) trigger() bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	go s.cycle()
	return true
}

func (s *Scheduler) cycle() {
	defer s.wg.Done()
	defer s.inFlight.Store(false)

	v, err := s.reconciler.Reconcile(s.ctx, s.user)

	s.mu.Lock()
	if s.disposed || s.ctx.Err() != nil {
		s.mu.Unlock()
		metrics.SchedulerDiscardedCycles.Inc()
		return
	}
	s.commit(v, err)
	st := s.state
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(st)
	}
}

// commit must be called with mu held.
func (s *Scheduler) commit(v *engine.Valuation, err error) {
	now := s.now()
	s.state.UpdatedAt = now

	if err != nil {
		code := apperrors.ErrInternalServer.Code
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			code = appErr.Code
		}
		s.state.Status = StatusError
		s.state.ErrorCode = code
		s.state.Error = err.Error()
		s.state.Stale = s.state.Valuation != nil
		s.logger.Warnw("refresh cycle failed", "user", s.user, "code", code, "error", err)
		return
	}

	s.state.Status = StatusReady
	s.state.Valuation = v
	s.state.ErrorCode = ""
	s.state.Error = ""
	s.state.Stale = false
	s.state.LastSuccessAt = &now
}
