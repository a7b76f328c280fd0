package api

import (
	"errors"
	"net/http"

	"github.com/coldcall/arena/internal/adapters/repository"
)

// ScoreboardHandler serves the derived board view.
type ScoreboardHandler struct {
	deps Dependencies
}

// NewScoreboardHandler creates a new scoreboard handler.
func NewScoreboardHandler(deps Dependencies) *ScoreboardHandler {
	return &ScoreboardHandler{deps: deps}
}

// HandleGetScoreboard handles GET /sessions/{id}/scoreboard.
func (h *ScoreboardHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	board, err := h.deps.Scoreboard(r.Context(), r.PathValue("id"))
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
