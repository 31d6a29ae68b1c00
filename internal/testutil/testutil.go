package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/headline-goat/variant-goat/internal/store"
)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := tmpDir + "/test.db"

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// NewTest builds a draft test with one variant per weight. Variant ids are
// "v0", "v1", ... and the primary metric is "conversion".
func NewTest(id, projectID string, createdAt time.Time, weights ...float64) *store.Test {
	variants := make([]store.Variant, len(weights))
	for i, w := range weights {
		variants[i] = store.Variant{
			ID:     fmt.Sprintf("v%d", i),
			Name:   fmt.Sprintf("Variant %d", i),
			Weight: w,
		}
	}

	return &store.Test{
		ID:            id,
		ProjectID:     projectID,
		Name:          "test " + id,
		Status:        store.StatusDraft,
		Variants:      variants,
		PrimaryMetric: "conversion",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}
