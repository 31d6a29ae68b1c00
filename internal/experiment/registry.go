package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/store"
)

const weightTolerance = 0.01

// TestDefinition is what a caller supplies to create a test.
type TestDefinition struct {
	ProjectID        string          `json:"project_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Variants         []store.Variant `json:"variants"`
	PrimaryMetric    string          `json:"primary_metric"`
	SecondaryMetrics []string        `json:"secondary_metrics,omitempty"`
}

// CreateTest validates def and stores it as a new draft test.
func (e *Engine) CreateTest(ctx context.Context, def TestDefinition) (*store.Test, error) {
	if strings.TrimSpace(def.ProjectID) == "" {
		return nil, &ValidationError{Field: "project_id", Reason: "required"}
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(def.PrimaryMetric) == "" {
		return nil, &ValidationError{Field: "primary_metric", Reason: "required"}
	}
	if len(def.Variants) == 0 {
		return nil, &ValidationError{Field: "variants", Reason: "at least one variant is required"}
	}

	variants := make([]store.Variant, len(def.Variants))
	seen := make(map[string]bool, len(def.Variants))
	for i, v := range def.Variants {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if seen[v.ID] {
			return nil, &ValidationError{Field: "variants", Reason: fmt.Sprintf("duplicate variant id %q", v.ID)}
		}
		seen[v.ID] = true
		if strings.TrimSpace(v.Name) == "" {
			return nil, &ValidationError{Field: "variants", Reason: fmt.Sprintf("variant %d has no name", i)}
		}
		variants[i] = v
	}

	if err := validateWeights(variants); err != nil {
		return nil, err
	}

	now := e.clock()
	test := &store.Test{
		ID:               uuid.NewString(),
		ProjectID:        def.ProjectID,
		Name:             def.Name,
		Description:      def.Description,
		Status:           store.StatusDraft,
		Variants:         variants,
		PrimaryMetric:    def.PrimaryMetric,
		SecondaryMetrics: def.SecondaryMetrics,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := e.store.CreateTest(ctx, test); err != nil {
		return nil, persistence("create test", err)
	}

	e.logger.Info().Str("test_id", test.ID).Str("project_id", test.ProjectID).
		Int("variants", len(variants)).Msg("test created")
	e.notify(ctx, broker.TestCreated, test.ID, test)

	return test, nil
}

// validateWeights enforces that each weight is within 0-100 and the weights
// sum to 100. Weights are never normalized.
func validateWeights(variants []store.Variant) error {
	var sum float64
	for _, v := range variants {
		sum += v.Weight
	}
	for _, v := range variants {
		if math.IsNaN(v.Weight) || math.IsInf(v.Weight, 0) {
			return &ValidationError{Field: "weights", Reason: fmt.Sprintf("weight of %q must be a finite number", v.Name), Sum: sum}
		}
		if v.Weight < 0 || v.Weight > 100 {
			return &ValidationError{Field: "weights", Reason: fmt.Sprintf("weight of %q must be between 0 and 100", v.Name), Sum: sum}
		}
	}
	if math.Abs(sum-100) > weightTolerance {
		return &ValidationError{Field: "weights", Reason: "weights must sum to 100", Sum: sum}
	}
	return nil
}

func (e *Engine) GetTest(ctx context.Context, id string) (*store.Test, error) {
	test, err := e.store.GetTest(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{TestID: id}
	}
	if err != nil {
		return nil, persistence("get test", err)
	}
	return test, nil
}

// ListTests returns the project's tests, newest first.
func (e *Engine) ListTests(ctx context.Context, projectID string) ([]*store.Test, error) {
	tests, err := e.store.ListTests(ctx, projectID)
	if err != nil {
		return nil, persistence("list tests", err)
	}
	return tests, nil
}

// UpdateWeights replaces the variant weights of a test that has not
// completed. weights maps variant id to its new weight; every variant must
// be present. Visitors already assigned keep their variant.
func (e *Engine) UpdateWeights(ctx context.Context, testID string, weights map[string]float64) (*store.Test, error) {
	test, err := e.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.Status == store.StatusCompleted {
		return nil, &StateError{TestID: testID, From: test.Status, Action: "reweight"}
	}

	if len(weights) != len(test.Variants) {
		return nil, &ValidationError{Field: "weights", Reason: "a weight is required for every variant", Sum: sumOf(weights)}
	}
	for i := range test.Variants {
		w, ok := weights[test.Variants[i].ID]
		if !ok {
			return nil, &ValidationError{Field: "weights", Reason: fmt.Sprintf("missing weight for variant %q", test.Variants[i].ID), Sum: sumOf(weights)}
		}
		test.Variants[i].Weight = w
	}
	if err := validateWeights(test.Variants); err != nil {
		return nil, err
	}

	test.UpdatedAt = e.clock()
	if err := e.store.UpdateVariantWeights(ctx, test); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{TestID: testID}
		}
		return nil, persistence("update weights", err)
	}

	e.logger.Info().Str("test_id", testID).Msg("variant weights updated")
	return test, nil
}

// DeleteTest removes a test with its variants, assignments, events and results.
func (e *Engine) DeleteTest(ctx context.Context, testID string) error {
	err := e.store.DeleteTest(ctx, testID)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{TestID: testID}
	}
	if err != nil {
		return persistence("delete test", err)
	}
	e.logger.Info().Str("test_id", testID).Msg("test deleted")
	return nil
}

func sumOf(weights map[string]float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}
