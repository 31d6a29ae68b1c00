package experiment

import (
	"context"
	"errors"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/metrics"
	"github.com/headline-goat/variant-goat/internal/store"
)

// Assign buckets visitorID into a variant of a running test. A visitor keeps
// the variant of their first assignment for the life of the test. A nil
// variant with a nil error means no assignment: the test is unknown or not
// running, and the caller should show no treatment.
func (e *Engine) Assign(ctx context.Context, testID, visitorID string) (*store.Variant, error) {
	test, err := e.store.GetTest(ctx, testID)
	if errors.Is(err, store.ErrNotFound) {
		e.metrics.Assignment(metrics.AssignmentNone)
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get test", err)
	}
	if test.Status != store.StatusRunning {
		e.metrics.Assignment(metrics.AssignmentNone)
		return nil, nil
	}

	existing, err := e.store.GetAssignment(ctx, testID, visitorID)
	if err == nil {
		e.metrics.Assignment(metrics.AssignmentExisting)
		return e.assigned(test, existing), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, persistence("get assignment", err)
	}

	selected := SelectVariant(test.Variants, e.random())
	if selected == nil {
		e.metrics.Assignment(metrics.AssignmentNone)
		return nil, nil
	}

	// A concurrent request may have bucketed the visitor since the read
	// above. Whichever insert won decides the variant.
	stored, created, err := e.store.InsertAssignment(ctx, &store.Assignment{
		TestID:     testID,
		VisitorID:  visitorID,
		VariantID:  selected.ID,
		AssignedAt: e.clock(),
	})
	if err != nil {
		return nil, persistence("insert assignment", err)
	}

	if !created {
		e.metrics.Assignment(metrics.AssignmentExisting)
		return e.assigned(test, stored), nil
	}

	e.metrics.Assignment(metrics.AssignmentNew)
	e.logger.Debug().Str("test_id", testID).Str("visitor_id", visitorID).Str("variant_id", stored.VariantID).
		Msg("visitor assigned")
	e.notify(ctx, broker.VisitorAssigned, testID, stored)

	return e.assigned(test, stored), nil
}

// assigned resolves the variant an assignment points at. Assignments always
// reference a variant of their test; control stands in should that ever
// not hold.
func (e *Engine) assigned(test *store.Test, a *store.Assignment) *store.Variant {
	if v := test.Variant(a.VariantID); v != nil {
		return v
	}
	e.logger.Warn().Str("test_id", test.ID).Str("variant_id", a.VariantID).Msg("assignment references unknown variant")
	return test.Control()
}
