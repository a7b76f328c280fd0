package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coldcall/arena/internal/adapters/repository"
)

// HistoryHandler serves the career view and its goal matrix.
type HistoryHandler struct {
	deps Dependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps Dependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /sessions/{id}/participants/{pid}/history.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	pid, err := strconv.Atoi(r.PathValue("pid"))
	if err != nil || pid < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	hist, err := h.deps.History(r.Context(), r.PathValue("id"), pid)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandlePutGoals handles PUT /sessions/{id}/participants/{pid}/goals.
func (h *HistoryHandler) HandlePutGoals(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_goals"
	pid, err := strconv.Atoi(r.PathValue("pid"))
	if err != nil || pid < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req GoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SaveGoals(r.Context(), r.PathValue("id"), pid, req); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "saved"})
}
