package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coldcall/arena/internal/adapters/repository"
)

// SessionHandler covers the destructive reset and the shared timer.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// resetRequest requires the caller to spell out the confirmation; a bare
// POST never wipes a board.
type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation_required", NewKind(op, ErrBadRequest))
		return
	}
	board, err := h.deps.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// timerRequest mirrors the POST timer body.
type timerRequest struct {
	Op      string `json:"op"` // start, pause, resume
	Minutes int    `json:"minutes"`
}

// HandleTimer handles POST /sessions/{id}/timer.
func (h *SessionHandler) HandleTimer(w http.ResponseWriter, r *http.Request) {
	const op = "api.timer"
	var req timerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	board, err := h.deps.Timer(r.Context(), r.PathValue("id"), req.Op, req.Minutes)
	if err != nil {
		if errors.Is(err, repository.ErrTimerState) {
			writeError(w, http.StatusConflict, "timer_state", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}
