package experiment_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/experiment"
	"github.com/headline-goat/variant-goat/internal/store"
	"github.com/headline-goat/variant-goat/internal/testutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []broker.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, msg broker.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Type
	}
	return out
}

// alternating returns a random source that cycles through values.
func alternating(values ...float64) func() float64 {
	var n atomic.Uint64
	return func() float64 {
		i := n.Add(1) - 1
		return values[i%uint64(len(values))]
	}
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return epoch.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func setupEngine(t *testing.T, opts ...experiment.Option) (*experiment.Engine, *store.SQLStore) {
	t.Helper()
	s := testutil.SetupTestStore(t)
	opts = append([]experiment.Option{experiment.WithClock(fixedClock())}, opts...)
	return experiment.New(s, opts...), s
}

func definition(weights ...float64) experiment.TestDefinition {
	names := []string{"Control", "Red", "Green", "Blue"}
	def := experiment.TestDefinition{
		ProjectID:     "proj-1",
		Name:          "cta-color",
		PrimaryMetric: "conversion",
	}
	for i, w := range weights {
		def.Variants = append(def.Variants, store.Variant{Name: names[i%len(names)], Weight: w})
	}
	return def
}

// runningTest creates and starts a test with the given weights.
func runningTest(t *testing.T, e *experiment.Engine, weights ...float64) *store.Test {
	t.Helper()
	ctx := context.Background()

	test, err := e.CreateTest(ctx, definition(weights...))
	require.NoError(t, err)

	test, err = e.Start(ctx, test.ID)
	require.NoError(t, err)
	return test
}
