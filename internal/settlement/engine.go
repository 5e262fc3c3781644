// Package settlement keeps the persisted transfers of every event consistent
// with its contributions and builds the per-participant debt views on top of
// them.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/adapter"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/messaging"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/metrics"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

const (
	defaultAggregateWorkers    = 8
	defaultReconcileMaxElapsed = 2 * time.Second
)

// Engine orchestrates the calculator and the store. It is safe for concurrent use.
type Engine struct {
	store     storage.Store
	clock     adapter.Clock
	publisher messaging.Publisher
	metrics   *metrics.Metrics

	pool                pond.ResultPool[*models.EventSettlement]
	aggregateWorkers    int
	reconcileMaxElapsed time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for timestamps and durations.
func WithClock(clock adapter.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithPublisher sets the publisher notified after each toggle.
func WithPublisher(publisher messaging.Publisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// WithMetrics sets the collectors. Without it nothing is recorded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAggregateWorkers bounds how many events are computed concurrently
// when building cross-event views.
func WithAggregateWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.aggregateWorkers = n
		}
	}
}

// WithReconcileMaxElapsed bounds the total time spent retrying a reconcile
// that keeps failing with a transient storage error.
func WithReconcileMaxElapsed(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.reconcileMaxElapsed = d
		}
	}
}

// NewEngine creates an Engine on top of store.
func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:               store,
		clock:               adapter.NewClock(),
		publisher:           messaging.NoopPublisher{},
		aggregateWorkers:    defaultAggregateWorkers,
		reconcileMaxElapsed: defaultReconcileMaxElapsed,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool = pond.NewResultPool[*models.EventSettlement](e.aggregateWorkers)
	return e
}

// Close waits for in-flight aggregate work and stops the worker pool.
// The store and the publisher are owned by the caller.
func (e *Engine) Close() {
	e.pool.StopAndWait()
}

// withRetry runs op until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. The last error is returned unchanged.
func (e *Engine) withRetry(ctx context.Context, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = e.reconcileMaxElapsed

	attempt := 0
	operation := func() error {
		attempt++
		err := op()
		if err != nil && !storage.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		slog.Warn("Settlement write contended, retrying",
			"operation", name,
			"attempt", attempt,
			"next_retry_in", next,
			"error", err,
		)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
}

type actorKey struct{}

// WithActor returns a context carrying the ID of the user performing a change.
// Toggles record it in the activity log.
func WithActor(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the actor stored by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	actorID, _ := ctx.Value(actorKey{}).(string)
	return actorID
}
