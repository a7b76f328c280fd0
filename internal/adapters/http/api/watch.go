package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// heartbeatInterval keeps intermediaries from closing idle SSE streams.
const heartbeatInterval = 25 * time.Second

// WatchHandler streams scoreboard updates over Server-Sent Events.
type WatchHandler struct {
	deps Dependencies
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(deps Dependencies) *WatchHandler {
	return &WatchHandler{deps: deps}
}

// HandleWatch handles GET /sessions/{id}/watch. The current board is sent
// immediately, then one `scoreboard` event per committed change.
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.watch"
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrBadRequest))
		return
	}

	sessionID := r.PathValue("id")
	updates, cancel, err := h.deps.WatchScoreboard(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial state so a new viewer renders without waiting for a change.
	if board, err := h.deps.Scoreboard(r.Context(), sessionID); err == nil {
		writeEvent(w, board)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case board, open := <-updates:
			if !open {
				return
			}
			writeEvent(w, board)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: scoreboard\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
}
