package experiment

import (
	"context"
	"errors"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/store"
)

// Lifecycle actions.
const (
	ActionStart = "start"
	ActionPause = "pause"
	ActionStop  = "stop"
)

// transitions lists, per action, the statuses it may leave from and the
// status it leads to. completed has no outgoing transitions.
var transitions = map[string]struct {
	from []store.TestStatus
	to   store.TestStatus
}{
	ActionStart: {from: []store.TestStatus{store.StatusDraft, store.StatusPaused}, to: store.StatusRunning},
	ActionPause: {from: []store.TestStatus{store.StatusRunning}, to: store.StatusPaused},
	ActionStop:  {from: []store.TestStatus{store.StatusRunning, store.StatusPaused}, to: store.StatusCompleted},
}

// StatusChange is published whenever a test changes status.
type StatusChange struct {
	TestID string           `json:"test_id"`
	Action string           `json:"action"`
	From   store.TestStatus `json:"from"`
	To     store.TestStatus `json:"to"`
}

// Start moves a draft or paused test to running. The start timestamp is
// stamped on every start, resumes included.
func (e *Engine) Start(ctx context.Context, testID string) (*store.Test, error) {
	return e.transition(ctx, testID, ActionStart)
}

// Pause moves a running test to paused. Visitors are not assigned while
// paused, and their conversions are dropped.
func (e *Engine) Pause(ctx context.Context, testID string) (*store.Test, error) {
	return e.transition(ctx, testID, ActionPause)
}

// Stop completes a running or paused test and stamps its end timestamp.
func (e *Engine) Stop(ctx context.Context, testID string) (*store.Test, error) {
	return e.transition(ctx, testID, ActionStop)
}

// Transition applies a lifecycle action by name.
func (e *Engine) Transition(ctx context.Context, testID, action string) (*store.Test, error) {
	if _, ok := transitions[action]; !ok {
		return nil, &ValidationError{Field: "action", Reason: "unknown action " + action}
	}
	return e.transition(ctx, testID, action)
}

func (e *Engine) transition(ctx context.Context, testID, action string) (*store.Test, error) {
	test, err := e.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	rule := transitions[action]
	if !allowed(rule.from, test.Status) {
		return nil, &StateError{TestID: testID, From: test.Status, Action: action}
	}

	from := test.Status
	now := e.clock()
	test.Status = rule.to
	test.UpdatedAt = now
	switch action {
	case ActionStart:
		test.StartAt = &now
	case ActionStop:
		test.EndAt = &now
	}

	if err := e.store.UpdateTestStatus(ctx, test, from); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{TestID: testID}
		case errors.Is(err, store.ErrStatusChanged):
			return nil, e.staleTransition(ctx, testID, from, action)
		}
		return nil, persistence(action+" test", err)
	}

	e.metrics.Transition(action)
	e.logger.Info().Str("test_id", testID).Str("from", string(from)).Str("status", string(test.Status)).
		Msg("test status changed")
	e.notify(ctx, broker.TestStatusChanged, testID, StatusChange{TestID: testID, Action: action, From: from, To: test.Status})

	return test, nil
}

// staleTransition reports an action that lost a race with another status
// change, naming the status that won when it can still be read.
func (e *Engine) staleTransition(ctx context.Context, testID string, from store.TestStatus, action string) error {
	current := from
	if test, err := e.store.GetTest(ctx, testID); err == nil {
		current = test.Status
	}
	e.logger.Warn().Str("test_id", testID).Str("action", action).Str("from", string(from)).
		Str("status", string(current)).Msg("status changed concurrently")
	return &StateError{TestID: testID, From: current, Action: action}
}

func allowed(from []store.TestStatus, status store.TestStatus) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}
