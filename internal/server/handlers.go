package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/headline-goat/variant-goat/internal/experiment"
	"github.com/headline-goat/variant-goat/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AssignRequest struct {
	TestID    string `json:"test_id"`
	VisitorID string `json:"visitor_id"`
}

// AssignResponse carries a null variant when the visitor gets no treatment.
type AssignResponse struct {
	Variant *store.Variant `json:"variant"`
}

type ConvertRequest struct {
	TestID    string   `json:"test_id"`
	VisitorID string   `json:"visitor_id"`
	EventType string   `json:"event_type"`
	Value     *float64 `json:"value,omitempty"`
}

type CreateTestRequest struct {
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Variants         []store.Variant `json:"variants"`
	PrimaryMetric    string          `json:"primary_metric"`
	SecondaryMetrics []string        `json:"secondary_metrics,omitempty"`
}

type UpdateWeightsRequest struct {
	Weights map[string]float64 `json:"weights"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TestID == "" || req.VisitorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "test_id and visitor_id are required")
		return
	}

	variant, err := s.engine.Assign(r.Context(), req.TestID, req.VisitorID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AssignResponse{Variant: variant})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TestID == "" || req.VisitorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "test_id and visitor_id are required")
		return
	}
	if req.EventType == "" {
		req.EventType = "conversion"
	}

	// Dropped events are not an error for the visitor's browser
	if _, err := s.engine.TrackConversion(r.Context(), req.TestID, req.VisitorID, req.EventType, req.Value); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req CreateTestRequest
	if !decode(w, r, &req) {
		return
	}

	test, err := s.engine.CreateTest(r.Context(), experiment.TestDefinition{
		ProjectID:        chi.URLParam(r, "projectID"),
		Name:             req.Name,
		Description:      req.Description,
		Variants:         req.Variants,
		PrimaryMetric:    req.PrimaryMetric,
		SecondaryMetrics: req.SecondaryMetrics,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, test)
}

func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.engine.ListTests(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if tests == nil {
		tests = []*store.Test{}
	}
	writeJSON(w, http.StatusOK, tests)
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	test, err := s.engine.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (s *Server) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteTest(r.Context(), chi.URLParam(r, "testID")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	test, err := s.engine.Transition(r.Context(), chi.URLParam(r, "testID"), chi.URLParam(r, "action"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (s *Server) handleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	var req UpdateWeightsRequest
	if !decode(w, r, &req) {
		return
	}

	test, err := s.engine.UpdateWeights(r.Context(), chi.URLParam(r, "testID"), req.Weights)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		var err error
		if refresh, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "refresh must be a boolean")
			return
		}
	}

	results, err := s.engine.GetResults(r.Context(), chi.URLParam(r, "testID"), refresh)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// fail maps engine errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, experiment.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, experiment.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, experiment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
