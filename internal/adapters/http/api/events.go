package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/dedupe"
	"github.com/okian/streakd/internal/domain/model"
)

const maxEventBodyBytes = 64 << 10

// EventDependencies defines the interface for event ingestion.
type EventDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Submission) bool
}

// eventRequest is the body of POST /events. TS may be epoch seconds as a
// number or string, or an ISO-8601 string.
type eventRequest struct {
	EventID  string `json:"event_id"`
	MemberID string `json:"member_id"`
	TS       any    `json:"ts"`
}

func (e *eventRequest) validate() error {
	if strings.TrimSpace(e.MemberID) == "" {
		return errors.New("missing member_id")
	}
	if e.TS == nil {
		return errors.New("missing ts")
	}
	if _, err := activity.ParseEvent(model.RawEvent{Timestamp: e.TS}); err != nil {
		return err
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.EventID) == "" {
		req.EventID = uuid.NewString()
	}

	if h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: req.EventID, Duplicate: true})
		return
	}

	sub := model.Submission{
		EventID:  req.EventID,
		MemberID: strings.TrimSpace(req.MemberID),
		Raw:      model.RawEvent{Timestamp: req.TS},
	}
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// let the client retry the same id
		h.deps.Unrecord(r.Context(), req.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: req.EventID})
}
