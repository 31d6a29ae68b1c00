package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headline-goat/variant-goat/internal/store"
	"github.com/headline-goat/variant-goat/internal/testutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOpen(t *testing.T) {
	s := testutil.SetupTestStore(t)

	require.NotNil(t, s)
	assert.Equal(t, "sqlite", s.Dialect())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestCreateAndGetTest(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	test := testutil.NewTest("t1", "proj", epoch, 50, 30, 20)
	test.Description = "hero headline"
	test.SecondaryMetrics = []string{"click", "scroll"}
	test.Variants[1].Config = map[string]any{"color": "red"}

	require.NoError(t, s.CreateTest(ctx, test))

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, "proj", got.ProjectID)
	assert.Equal(t, "hero headline", got.Description)
	assert.Equal(t, store.StatusDraft, got.Status)
	assert.Nil(t, got.StartAt)
	assert.Nil(t, got.EndAt)
	assert.Nil(t, got.Results)
	assert.Equal(t, "conversion", got.PrimaryMetric)
	assert.Equal(t, []string{"click", "scroll"}, got.SecondaryMetrics)
	assert.True(t, got.CreatedAt.Equal(epoch))

	require.Len(t, got.Variants, 3)
	assert.Equal(t, "v0", got.Variants[0].ID)
	assert.Equal(t, 30.0, got.Variants[1].Weight)
	assert.Equal(t, "red", got.Variants[1].Config["color"])
	assert.Nil(t, got.Variants[0].Config)
}

func TestCreateTest_DuplicateID(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))
	assert.Error(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))
}

func TestGetTest_NotFound(t *testing.T) {
	s := testutil.SetupTestStore(t)

	_, err := s.GetTest(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListTests_NewestFirst(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("old", "proj", epoch, 100)))
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("new", "proj", epoch.Add(time.Minute), 100)))
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("other", "elsewhere", epoch, 100)))

	tests, err := s.ListTests(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "new", tests[0].ID)
	assert.Equal(t, "old", tests[1].ID)
	assert.Len(t, tests[0].Variants, 1)

	empty, err := s.ListTests(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateTestStatus(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	test := testutil.NewTest("t1", "proj", epoch, 50, 50)
	require.NoError(t, s.CreateTest(ctx, test))

	start := epoch.Add(time.Hour)
	test.Status = store.StatusRunning
	test.StartAt = &start
	test.UpdatedAt = start
	require.NoError(t, s.UpdateTestStatus(ctx, test, store.StatusDraft))

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, got.Status)
	require.NotNil(t, got.StartAt)
	assert.True(t, got.StartAt.Equal(start))
	assert.True(t, got.UpdatedAt.Equal(start))

	missing := testutil.NewTest("missing", "proj", epoch, 100)
	assert.ErrorIs(t, s.UpdateTestStatus(ctx, missing, store.StatusDraft), store.ErrNotFound)
}

func TestUpdateTestStatus_StaleStatus(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	test := testutil.NewTest("t1", "proj", epoch, 50, 50)
	require.NoError(t, s.CreateTest(ctx, test))

	test.Status = store.StatusRunning
	require.NoError(t, s.UpdateTestStatus(ctx, test, store.StatusDraft))

	end := epoch.Add(time.Hour)
	test.Status = store.StatusCompleted
	test.EndAt = &end
	test.UpdatedAt = end
	require.NoError(t, s.UpdateTestStatus(ctx, test, store.StatusRunning))

	// A writer that still believes the test is running must not reopen it
	stale := testutil.NewTest("t1", "proj", epoch, 50, 50)
	stale.Status = store.StatusPaused
	stale.UpdatedAt = end.Add(time.Minute)
	assert.ErrorIs(t, s.UpdateTestStatus(ctx, stale, store.StatusRunning), store.ErrStatusChanged)

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.EndAt)
	assert.True(t, got.UpdatedAt.Equal(end))
}

func TestUpdateVariantWeights(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	test := testutil.NewTest("t1", "proj", epoch, 50, 50)
	require.NoError(t, s.CreateTest(ctx, test))

	test.Variants[0].Weight = 20
	test.Variants[1].Weight = 80
	require.NoError(t, s.UpdateVariantWeights(ctx, test))

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Variants[0].Weight)
	assert.Equal(t, 80.0, got.Variants[1].Weight)
}

func TestDeleteTest(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))
	_, _, err := s.InsertAssignment(ctx, &store.Assignment{TestID: "t1", VisitorID: "a", VariantID: "v0", AssignedAt: epoch})
	require.NoError(t, err)
	require.NoError(t, s.RecordEvent(ctx, &store.Event{ID: "e1", TestID: "t1", VisitorID: "a", VariantID: "v0", EventType: "conversion", CreatedAt: epoch}))

	require.NoError(t, s.DeleteTest(ctx, "t1"))

	_, err = s.GetTest(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetAssignment(ctx, "t1", "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteTest(ctx, "t1"), store.ErrNotFound)
}

func TestInsertAssignment_FirstWriterWins(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))

	first, created, err := s.InsertAssignment(ctx, &store.Assignment{TestID: "t1", VisitorID: "visitor-1", VariantID: "v0", AssignedAt: epoch})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "v0", first.VariantID)

	second, created, err := s.InsertAssignment(ctx, &store.Assignment{TestID: "t1", VisitorID: "visitor-1", VariantID: "v1", AssignedAt: epoch.Add(time.Second)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "v0", second.VariantID)
	assert.True(t, second.AssignedAt.Equal(epoch))
}

func TestInsertAssignment_Concurrent(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))

	const writers = 16
	var wg sync.WaitGroup
	variants := make([]string, writers)
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			variantID := "v0"
			if i%2 == 1 {
				variantID = "v1"
			}
			a, _, err := s.InsertAssignment(ctx, &store.Assignment{TestID: "t1", VisitorID: "racer", VariantID: variantID, AssignedAt: epoch})
			errs[i] = err
			if a != nil {
				variants[i] = a.VariantID
			}
		}(i)
	}
	wg.Wait()

	for i := range variants {
		require.NoError(t, errs[i])
		assert.Equal(t, variants[0], variants[i])
	}
}

func TestGetVariantCounts_DistinctVisitors(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))

	assign := func(visitor, variant string) {
		_, _, err := s.InsertAssignment(ctx, &store.Assignment{TestID: "t1", VisitorID: visitor, VariantID: variant, AssignedAt: epoch})
		require.NoError(t, err)
	}
	n := 0
	event := func(visitor, variant, eventType string) {
		n++
		require.NoError(t, s.RecordEvent(ctx, &store.Event{
			ID: "e" + string(rune('a'+n)), TestID: "t1", VisitorID: visitor, VariantID: variant,
			EventType: eventType, CreatedAt: epoch,
		}))
	}

	assign("a", "v0")
	assign("b", "v0")
	assign("c", "v1")

	event("a", "v0", "conversion")
	event("a", "v0", "conversion") // same visitor counts once
	event("b", "v0", "click")      // not the primary metric
	event("c", "v1", "conversion")

	counts, err := s.GetVariantCounts(ctx, "t1", "conversion")
	require.NoError(t, err)

	byID := map[string]store.VariantCounts{}
	for _, c := range counts {
		byID[c.VariantID] = c
	}
	assert.Equal(t, store.VariantCounts{VariantID: "v0", Visitors: 2, Conversions: 1}, byID["v0"])
	assert.Equal(t, store.VariantCounts{VariantID: "v1", Visitors: 1, Conversions: 1}, byID["v1"])
}

func TestSaveResults_Overwrites(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 50, 50)))

	first := &store.Results{
		TotalVisitors:   10,
		ConfidenceLevel: 0.95,
		WinnerVariantID: "v1",
		Variants: []store.VariantResult{
			{VariantID: "v0", Name: "Variant 0", Visitors: 5},
			{VariantID: "v1", Name: "Variant 1", Visitors: 5},
		},
		Insights:    []string{"first"},
		GeneratedAt: epoch,
	}
	require.NoError(t, s.SaveResults(ctx, "t1", first))

	second := &store.Results{
		TotalVisitors:    20,
		TotalConversions: 3,
		ConversionRate:   15,
		ConfidenceLevel:  0.99,
		Variants: []store.VariantResult{
			{VariantID: "v0", Name: "Variant 0", Visitors: 12, Conversions: 1, ConversionRate: 8.333, CILower: 1, CIUpper: 20},
		},
		Recommendations: []string{"continue"},
		GeneratedAt:     epoch.Add(time.Hour),
	}
	require.NoError(t, s.SaveResults(ctx, "t1", second))

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got.Results)

	r := got.Results
	assert.Equal(t, 20, r.TotalVisitors)
	assert.Equal(t, 3, r.TotalConversions)
	assert.Equal(t, 0.99, r.ConfidenceLevel)
	assert.False(t, r.HasWinner())
	assert.Empty(t, r.Insights)
	assert.Equal(t, []string{"continue"}, r.Recommendations)
	assert.True(t, r.GeneratedAt.Equal(epoch.Add(time.Hour)))
	require.Len(t, r.Variants, 1)
	assert.Equal(t, 8.333, r.Variants[0].ConversionRate)
}

func TestRecordEvent_OptionalValue(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, testutil.NewTest("t1", "proj", epoch, 100)))

	value := 42.5
	require.NoError(t, s.RecordEvent(ctx, &store.Event{ID: "e1", TestID: "t1", VisitorID: "a", VariantID: "v0", EventType: "purchase", Value: &value, CreatedAt: epoch}))
	require.NoError(t, s.RecordEvent(ctx, &store.Event{ID: "e2", TestID: "t1", VisitorID: "a", VariantID: "v0", EventType: "purchase", CreatedAt: epoch}))

	err := s.RecordEvent(ctx, &store.Event{ID: "e1", TestID: "t1", VisitorID: "b", VariantID: "v0", EventType: "purchase", CreatedAt: epoch})
	assert.Error(t, err, "event ids are unique")
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
