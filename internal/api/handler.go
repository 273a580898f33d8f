package api

import (
	"encoding/json"
	"net/http"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/cache"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/orchestrator"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	orch    *orchestrator.Orchestrator
	counter cache.Counter
	version string
}

// NewHandler creates a new API handler.
func NewHandler(orch *orchestrator.Orchestrator, counter cache.Counter, version string) *Handler {
	return &Handler{
		orch:    orch,
		counter: counter,
		version: version,
	}
}

// CheckRequest is the request body for POST /eligibility.
type CheckRequest struct {
	Message string `json:"message"`
}

// Check runs the eligibility pipeline for one chat message. A message
// that is not an eligibility inquiry yields 204 No Content so the
// caller can fall through to other handling.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	payload := h.orch.ProcessMessage(r.Context(), req.Message)
	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// Health reports process health including counter backend reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.counter != nil {
		if err := h.counter.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Status reports rule and data-source counts for operational
// inspection.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
