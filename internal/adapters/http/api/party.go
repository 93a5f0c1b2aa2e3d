package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

const (
	maxPartyBodyBytes = 1 << 20
	maxPartySize      = 1000
)

// PartyDependencies defines the group analytics operation.
type PartyDependencies interface {
	PartyAnalytics(ctx context.Context, members []model.Member, days int, now time.Time) (model.GroupReport, error)
	DefaultWindowDays() int
}

// partyRequest is the body of POST /party/analytics. A missing days uses
// the default window; an explicit non-positive one is rejected.
type partyRequest struct {
	Days    *int           `json:"days"`
	Now     string         `json:"now"`
	Members []model.Member `json:"members"`
}

func (p *partyRequest) validate() error {
	if len(p.Members) > maxPartySize {
		return fmt.Errorf("party has %d members; at most %d allowed", len(p.Members), maxPartySize)
	}
	seen := make(map[string]struct{}, len(p.Members))
	for i := range p.Members {
		id := strings.TrimSpace(p.Members[i].ID)
		if id == "" {
			return fmt.Errorf("member %d has no member_id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate member_id %q", id)
		}
		seen[id] = struct{}{}
		p.Members[i].ID = id
	}
	return nil
}

// PartyHandler handles party analytics requests.
type PartyHandler struct {
	deps PartyDependencies
}

// NewPartyHandler creates a new party handler.
func NewPartyHandler(deps PartyDependencies) *PartyHandler {
	return &PartyHandler{deps: deps}
}

// HandlePartyAnalytics handles POST /party/analytics requests.
func (h *PartyHandler) HandlePartyAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.party_analytics"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req partyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPartyBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	now, err := parseNow(req.Now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	days := h.deps.DefaultWindowDays()
	if req.Days != nil {
		days = *req.Days
	}

	report, err := h.deps.PartyAnalytics(r.Context(), req.Members, days, now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
