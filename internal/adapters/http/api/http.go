// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coldcall/arena/internal/domain/dedupe"
	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/internal/domain/types"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an action for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, a model.Action) bool

	// Scoreboard returns the full derived view for a session.
	Scoreboard(ctx context.Context, sessionID string) (types.Scoreboard, error)

	// WatchScoreboard subscribes to scoreboard updates for a session.
	WatchScoreboard(ctx context.Context, sessionID string) (<-chan types.Scoreboard, func(), error)

	// Settings and configuration writes.
	UpdateSettings(ctx context.Context, sessionID string, participantID int, name *string, unitValue, callGoal *float64) (types.Scoreboard, error)
	SetTeamTarget(ctx context.Context, sessionID string, target float64) (types.Scoreboard, error)

	// Reset zeroes all counters and clears timer state. Destructive.
	Reset(ctx context.Context, sessionID string) (types.Scoreboard, error)

	// Timer drives the shared countdown; op is start, pause or resume.
	Timer(ctx context.Context, sessionID, op string, minutes int) (types.Scoreboard, error)

	// History returns window totals vs goals for one participant.
	History(ctx context.Context, sessionID string, participantID int) (types.History, error)
	SaveGoals(ctx context.Context, sessionID string, participantID int, g GoalsRequest) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	health     *HealthHandler
	stats      *StatsHandler
	actions    *ActionsHandler
	scoreboard *ScoreboardHandler
	watch      *WatchHandler
	settings   *SettingsHandler
	session    *SessionHandler
	history    *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		health:     NewHealthHandler(),
		stats:      NewStatsHandler(statsProvider),
		actions:    NewActionsHandler(deps),
		scoreboard: NewScoreboardHandler(deps),
		watch:      NewWatchHandler(deps),
		settings:   NewSettingsHandler(deps),
		session:    NewSessionHandler(deps),
		history:    NewHistoryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.health.HandleHealth)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	mux.HandleFunc("POST /sessions/{id}/actions", MetricsMiddleware(s.actions.HandlePostAction, "actions"))
	mux.HandleFunc("GET /sessions/{id}/scoreboard", MetricsMiddleware(s.scoreboard.HandleGetScoreboard, "scoreboard"))
	mux.HandleFunc("GET /sessions/{id}/watch", s.watch.HandleWatch)
	mux.HandleFunc("PUT /sessions/{id}/participants/{pid}/settings", MetricsMiddleware(s.settings.HandlePutSettings, "settings"))
	mux.HandleFunc("PUT /sessions/{id}/participants/{pid}/goals", MetricsMiddleware(s.history.HandlePutGoals, "goals"))
	mux.HandleFunc("GET /sessions/{id}/participants/{pid}/history", MetricsMiddleware(s.history.HandleGetHistory, "history"))
	mux.HandleFunc("PUT /sessions/{id}/target", MetricsMiddleware(s.settings.HandlePutTarget, "target"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(s.session.HandleReset, "reset"))
	mux.HandleFunc("POST /sessions/{id}/timer", MetricsMiddleware(s.session.HandleTimer, "timer"))
}

// actionRequest mirrors the POST /sessions/{id}/actions body.
type actionRequest struct {
	ActionID      string `json:"action_id"`
	ParticipantID int    `json:"participant_id"`
	Kind          string `json:"kind"`
	Undo          bool   `json:"undo"`
	TS            string `json:"ts"`
}

func (a actionRequest) validate() error {
	switch {
	case a.ActionID == "":
		return NewKind("api.post_action", ErrBadRequest)
	case a.ParticipantID < 1:
		return NewKind("api.post_action", ErrBadRequest)
	case !model.ActionKind(a.Kind).Valid():
		return model.ErrUnknownKind
	}
	if a.TS != "" {
		if _, err := time.Parse(time.RFC3339, a.TS); err != nil {
			return WrapKind("api.post_action", ErrBadRequest, err)
		}
	}
	return nil
}

// GoalsRequest mirrors the PUT goals body: a window x metric target matrix.
type GoalsRequest struct {
	DailyCalls      int     `json:"daily_calls"`
	WeeklyCalls     int     `json:"weekly_calls"`
	MonthlyCalls    int     `json:"monthly_calls"`
	YearlyCalls     int     `json:"yearly_calls"`
	DailyDeciders   int     `json:"daily_deciders"`
	WeeklyDeciders  int     `json:"weekly_deciders"`
	MonthlyDeciders int     `json:"monthly_deciders"`
	YearlyDeciders  int     `json:"yearly_deciders"`
	DailyMeetings   int     `json:"daily_meetings"`
	WeeklyMeetings  int     `json:"weekly_meetings"`
	MonthlyMeetings int     `json:"monthly_meetings"`
	YearlyMeetings  int     `json:"yearly_meetings"`
	DailyRevenue    float64 `json:"daily_revenue"`
	WeeklyRevenue   float64 `json:"weekly_revenue"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	YearlyRevenue   float64 `json:"yearly_revenue"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
