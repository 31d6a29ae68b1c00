package experiment

import (
	"errors"
	"fmt"

	"github.com/headline-goat/variant-goat/internal/store"
)

// Sentinels for errors.Is. Each typed error below matches exactly one.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError rejects a test definition. Sum is the computed weight sum,
// set when the weights are the problem.
type ValidationError struct {
	Field  string
	Reason string
	Sum    float64
}

func (e *ValidationError) Error() string {
	if e.Field == "weights" {
		return fmt.Sprintf("invalid weights: %s (sum %.2f)", e.Reason, e.Sum)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown test, or results requested for a test
// with no assignments yet.
type NotFoundError struct {
	TestID string
	What   string
}

func (e *NotFoundError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("test %s not found", e.TestID)
	}
	return fmt.Sprintf("test %s: %s not found", e.TestID, e.What)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StateError rejects a lifecycle action from the current status.
type StateError struct {
	TestID string
	From   store.TestStatus
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s test %s: status is %s", e.Action, e.TestID, e.From)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidTransition }

// PersistenceError wraps a store failure. It is never retried here.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
