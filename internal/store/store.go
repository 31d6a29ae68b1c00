package store

import "context"

// Store defines the persistence operations the experimentation engine needs
type Store interface {
	// Test operations
	CreateTest(ctx context.Context, test *Test) error
	GetTest(ctx context.Context, id string) (*Test, error)
	ListTests(ctx context.Context, projectID string) ([]*Test, error)
	// UpdateTestStatus writes test's status and timestamps only while the
	// stored status is still from. Otherwise it returns ErrStatusChanged.
	UpdateTestStatus(ctx context.Context, test *Test, from TestStatus) error
	UpdateVariantWeights(ctx context.Context, test *Test) error
	DeleteTest(ctx context.Context, id string) error

	// Assignment operations
	GetAssignment(ctx context.Context, testID, visitorID string) (*Assignment, error)
	// InsertAssignment stores a if no assignment exists for its (test, visitor)
	// key. It returns the assignment that is stored after the call and whether
	// a was the one written.
	InsertAssignment(ctx context.Context, a *Assignment) (*Assignment, bool, error)

	// Event operations
	RecordEvent(ctx context.Context, e *Event) error
	GetVariantCounts(ctx context.Context, testID, eventType string) ([]VariantCounts, error)

	// Results
	SaveResults(ctx context.Context, testID string, results *Results) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
