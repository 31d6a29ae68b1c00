package experiment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/metrics"
	"github.com/headline-goat/variant-goat/internal/store"
)

// TrackConversion records an event of eventType for a bucketed visitor,
// attributed to the variant they were assigned. Events from visitors
// without an assignment, or for a test that is not running, are dropped;
// the returned bool reports whether the event was kept.
func (e *Engine) TrackConversion(ctx context.Context, testID, visitorID, eventType string, value *float64) (bool, error) {
	if eventType == "" {
		return false, &ValidationError{Field: "event_type", Reason: "required"}
	}

	test, err := e.store.GetTest(ctx, testID)
	if errors.Is(err, store.ErrNotFound) {
		e.metrics.Conversion(metrics.ConversionDropped)
		return false, nil
	}
	if err != nil {
		return false, persistence("get test", err)
	}
	if test.Status != store.StatusRunning {
		e.metrics.Conversion(metrics.ConversionDropped)
		return false, nil
	}

	assignment, err := e.store.GetAssignment(ctx, testID, visitorID)
	if errors.Is(err, store.ErrNotFound) {
		e.metrics.Conversion(metrics.ConversionDropped)
		e.logger.Debug().Str("test_id", testID).Str("visitor_id", visitorID).Msg("dropped event for unassigned visitor")
		return false, nil
	}
	if err != nil {
		return false, persistence("get assignment", err)
	}

	event := &store.Event{
		ID:        uuid.NewString(),
		TestID:    testID,
		VisitorID: visitorID,
		VariantID: assignment.VariantID,
		EventType: eventType,
		Value:     value,
		CreatedAt: e.clock(),
	}
	if err := e.store.RecordEvent(ctx, event); err != nil {
		return false, persistence("record event", err)
	}

	e.metrics.Conversion(metrics.ConversionRecorded)
	e.notify(ctx, broker.ConversionRecorded, testID, event)

	return true, nil
}
