package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/pkg/metrics"
)

// ActionsHandler accepts logged call outcomes.
type ActionsHandler struct {
	deps Dependencies
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(deps Dependencies) *ActionsHandler {
	return &ActionsHandler{deps: deps}
}

// HandlePostAction handles POST /sessions/{id}/actions.
// Retried submissions with a known action_id are acknowledged as duplicates;
// backpressure rolls the idempotency record back so the client can retry.
func (h *ActionsHandler) HandlePostAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_action"
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.ActionID) {
		metrics.RecordActionDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts := time.Now()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}
	a := model.Action{
		ActionID:      req.ActionID,
		SessionID:     r.PathValue("id"),
		ParticipantID: req.ParticipantID,
		Kind:          model.ActionKind(req.Kind),
		Undo:          req.Undo,
		TS:            ts,
	}
	if ok := h.deps.Enqueue(r.Context(), a); !ok {
		h.deps.Unrecord(r.Context(), req.ActionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
