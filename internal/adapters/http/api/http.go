// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/streakd/internal/adapters/judge"
	"github.com/okian/streakd/internal/adapters/repository"
	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/dedupe"
	"github.com/okian/streakd/internal/domain/model"
)

// Dependencies required by HTTP handlers. A zero now asks the
// implementation to use its own clock.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async storage. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, s model.Submission) bool

	Streak(ctx context.Context, memberID string, now time.Time) (model.StreakReport, error)
	MemberActivity(ctx context.Context, memberID string, days int, now time.Time) (model.ActivityReport, error)
	PartyAnalytics(ctx context.Context, members []model.Member, days int, now time.Time) (model.GroupReport, error)

	// DefaultWindowDays is used when a request does not name a window.
	DefaultWindowDays() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	streakHandler *StreakHandler
	partyHandler  *PartyHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		streakHandler: NewStreakHandler(deps),
		partyHandler:  NewPartyHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/streak/", MetricsMiddleware(s.streakHandler.HandleGetStreak, "streak"))
	mux.HandleFunc("/activity/", MetricsMiddleware(s.streakHandler.HandleGetActivity, "activity"))
	mux.HandleFunc("/party/analytics", MetricsMiddleware(s.partyHandler.HandlePartyAnalytics, "party"))
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

// writeFailure maps an upstream error to its HTTP status and error code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, activity.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", WrapKind(op, ErrInvalidWindow, err))
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, judge.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
	default:
		writeError(w, http.StatusBadGateway, "fetch_failed", WrapKind(op, ErrFetchFailed, err))
	}
}

// parseNow reads an optional RFC3339 reference instant. An empty value
// yields the zero time.
func parseNow(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("invalid now; must be RFC3339")
	}
	return t.UTC(), nil
}
