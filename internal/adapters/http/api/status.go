// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// StatusHandler handles serving-state requests.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.status"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}
