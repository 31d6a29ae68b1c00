package experiment

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/metrics"
	"github.com/headline-goat/variant-goat/internal/stats"
	"github.com/headline-goat/variant-goat/internal/store"
)

// Engine runs experiments on top of a Store. It holds no mutable state of
// its own, so one Engine serves concurrent callers.
type Engine struct {
	store     store.Store
	publisher broker.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	stats     stats.Options
	random    func() float64
	now       func() time.Time
}

type Option func(*Engine)

func WithPublisher(p broker.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithStatsOptions(o stats.Options) Option {
	return func(e *Engine) { e.stats = o }
}

// WithRandom sets the bucketing source. fn must return values in [0, 100).
func WithRandom(fn func() float64) Option {
	return func(e *Engine) { e.random = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		publisher: broker.Nop{},
		logger:    zerolog.Nop(),
		stats:     stats.DefaultOptions(),
		random:    func() float64 { return rand.Float64() * 100 },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// clock returns the current time at the millisecond precision the store keeps.
func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// notify publishes a notification. Delivery failures are logged and never
// fail the operation that produced them.
func (e *Engine) notify(ctx context.Context, kind, testID string, payload any) {
	msg := broker.Message{Type: kind, Key: testID, Payload: payload, Time: e.clock()}
	if err := e.publisher.Publish(ctx, msg); err != nil {
		e.logger.Warn().Err(err).Str("type", kind).Str("test_id", testID).Msg("failed to publish notification")
	}
}
