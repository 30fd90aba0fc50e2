// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/pkg/metrics"
)

// predictRequest mirrors the request schema for POST /predict.
type predictRequest struct {
	Features gesture.FeatureBag `json:"features"`
	Type     gesture.Intent     `json:"type"`
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests. An empty body is served as
// an empty feature bag; the gesture type defaults to the neutral fallback so
// the front-end can omit it.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		metrics.RecordPredictionError()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Type == "" {
		req.Type = gesture.FallbackIntent
	}

	prediction := h.deps.Predict(r.Context(), req.Features, req.Type)
	writeJSON(w, http.StatusOK, prediction)
}
