package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coldcall/arena/internal/adapters/repository"
)

// SettingsHandler covers participant settings and the team target.
type SettingsHandler struct {
	deps Dependencies
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps Dependencies) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

// settingsRequest is a partial update; absent fields stay untouched.
type settingsRequest struct {
	Name      *string  `json:"name"`
	UnitValue *float64 `json:"unit_value"`
	CallGoal  *float64 `json:"call_goal"`
}

// HandlePutSettings handles PUT /sessions/{id}/participants/{pid}/settings.
func (h *SettingsHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_settings"
	pid, err := strconv.Atoi(r.PathValue("pid"))
	if err != nil || pid < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	board, err := h.deps.UpdateSettings(r.Context(), r.PathValue("id"), pid, req.Name, req.UnitValue, req.CallGoal)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// targetRequest mirrors the PUT target body.
type targetRequest struct {
	TeamTarget float64 `json:"team_target"`
}

// HandlePutTarget handles PUT /sessions/{id}/target.
func (h *SettingsHandler) HandlePutTarget(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_target"
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	board, err := h.deps.SetTeamTarget(r.Context(), r.PathValue("id"), req.TeamTarget)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTarget) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}
