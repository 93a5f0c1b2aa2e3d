package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

// StreakDependencies defines the single-member read operations.
type StreakDependencies interface {
	Streak(ctx context.Context, memberID string, now time.Time) (model.StreakReport, error)
	MemberActivity(ctx context.Context, memberID string, days int, now time.Time) (model.ActivityReport, error)
	DefaultWindowDays() int
}

// StreakHandler handles personal streak and activity requests.
type StreakHandler struct {
	deps StreakDependencies
}

// NewStreakHandler creates a new streak handler.
func NewStreakHandler(deps StreakDependencies) *StreakHandler {
	return &StreakHandler{deps: deps}
}

// HandleGetStreak handles GET /streak/{member_id} requests.
func (h *StreakHandler) HandleGetStreak(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_streak"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	member, ok := memberFromPath(r.URL.Path, "/streak/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	now, err := parseNow(r.URL.Query().Get("now"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.Streak(r.Context(), member, now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetActivity handles GET /activity/{member_id}?days=N requests.
func (h *StreakHandler) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_activity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	member, ok := memberFromPath(r.URL.Path, "/activity/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	q := r.URL.Query()
	now, err := parseNow(q.Get("now"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	days := h.deps.DefaultWindowDays()
	if v := q.Get("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window", WrapKind(op, ErrInvalidWindow, errors.New("days must be an integer")))
			return
		}
	}

	report, err := h.deps.MemberActivity(r.Context(), member, days, now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func memberFromPath(path, prefix string) (string, bool) {
	member := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if member == "" || strings.Contains(member, "/") {
		return "", false
	}
	return member, true
}
