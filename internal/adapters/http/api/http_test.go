package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/streakd/internal/adapters/http/api"
	"github.com/okian/streakd/internal/adapters/judge"
	"github.com/okian/streakd/internal/adapters/repository"
	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	mu       sync.Mutex
	seen     map[string]bool
	enqueued []model.Submission
	full     bool

	streakErr error
	lastNow   time.Time
	lastDays  int
	lastParty []model.Member
}

func newMockDeps() *mockDeps {
	return &mockDeps{seen: make(map[string]bool)}
}

func (m *mockDeps) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockDeps) Enqueue(_ context.Context, s model.Submission) bool {
	if m.full {
		return false
	}
	m.enqueued = append(m.enqueued, s)
	return true
}

func (m *mockDeps) Streak(_ context.Context, memberID string, now time.Time) (model.StreakReport, error) {
	m.lastNow = now
	if m.streakErr != nil {
		return model.StreakReport{}, m.streakErr
	}
	return model.StreakReport{
		MemberID:     memberID,
		StreakResult: model.StreakResult{CurrentStreak: 3, LongestStreak: 5},
		Achievements: activity.AchievementProgress(model.StreakResult{CurrentStreak: 3, LongestStreak: 5}, nil),
	}, nil
}

func (m *mockDeps) MemberActivity(_ context.Context, memberID string, days int, now time.Time) (model.ActivityReport, error) {
	m.lastDays = days
	if err := activity.ValidateWindow(days); err != nil {
		return model.ActivityReport{}, err
	}
	if m.streakErr != nil {
		return model.ActivityReport{}, m.streakErr
	}
	points, _ := activity.DailyActivity(now, days, nil)
	return model.ActivityReport{MemberID: memberID, Days: days, DailyActivity: points}, nil
}

func (m *mockDeps) PartyAnalytics(_ context.Context, members []model.Member, days int, now time.Time) (model.GroupReport, error) {
	m.lastDays = days
	m.lastNow = now
	m.lastParty = members
	points, err := activity.DailyActivity(now, days, nil)
	if err != nil {
		return model.GroupReport{}, err
	}
	return model.GroupReport{DailyActivity: points, WeeklyTrends: activity.WeeklyTrends(points)}, nil
}

func (m *mockDeps) DefaultWindowDays() int { return 7 }

type mockStats struct{}

func (mockStats) GetStats() map[string]any {
	return map[string]any{"started": true, "queueLength": 0}
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDeps())

		Convey("Then health, stats and metrics respond", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/stats", "").Code, ShouldEqual, http.StatusOK)

			m := do(mux, http.MethodGet, "/metrics", "")
			So(m.Code, ShouldEqual, http.StatusOK)
			So(m.Body.String(), ShouldContainSubstring, "streakd_")
		})

		Convey("And wrong methods are not found", func() {
			So(do(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/events", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/party/analytics", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given an events endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When posting a valid event with an ID", func() {
			w := do(mux, http.MethodPost, "/events", `{"event_id":"e1","member_id":"alice","ts":1750000000}`)

			Convey("Then it is accepted and enqueued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].MemberID, ShouldEqual, "alice")
				So(deps.enqueued[0].Raw.Timestamp, ShouldEqual, json.Number("1750000000"))
			})

			Convey("And posting it again is acknowledged as a duplicate", func() {
				again := do(mux, http.MethodPost, "/events", `{"event_id":"e1","member_id":"alice","ts":1750000000}`)
				var ack map[string]any
				decode(again, &ack)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(ack["status"], ShouldEqual, "duplicate")
				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When posting an event without an ID", func() {
			w := do(mux, http.MethodPost, "/events", `{"member_id":"bob","ts":"2025-06-01T10:00:00Z"}`)
			var ack map[string]any
			decode(w, &ack)

			Convey("Then an ID is generated", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(ack["event_id"], ShouldNotBeEmpty)
				So(deps.enqueued[0].EventID, ShouldEqual, ack["event_id"])
			})
		})

		Convey("When the body is invalid", func() {
			for _, body := range []string{
				`{not json`,
				`{"event_id":"x","ts":1750000000}`,
				`{"event_id":"x","member_id":"a"}`,
				`{"event_id":"x","member_id":"a","ts":"tomorrow"}`,
				`{"event_id":"x","member_id":"a","ts":-1}`,
			} {
				So(do(mux, http.MethodPost, "/events", body).Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.enqueued, ShouldBeEmpty)
		})

		Convey("When the queue is full", func() {
			deps.full = true
			w := do(mux, http.MethodPost, "/events", `{"event_id":"e9","member_id":"alice","ts":1750000000}`)

			Convey("Then it reports backpressure and forgets the ID", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})
	})
}

func TestStreakHandler(t *testing.T) {
	Convey("Given a streak endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When requesting a member streak", func() {
			w := do(mux, http.MethodGet, "/streak/alice?now=2025-07-10T12:00:00Z", "")
			var report model.StreakReport
			decode(w, &report)

			Convey("Then the report and achievements are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(report.MemberID, ShouldEqual, "alice")
				So(report.CurrentStreak, ShouldEqual, 3)
				So(len(report.Achievements), ShouldEqual, 5)
				So(deps.lastNow.Equal(time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When now is omitted it is passed as zero", func() {
			So(do(mux, http.MethodGet, "/streak/alice", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastNow.IsZero(), ShouldBeTrue)
		})

		Convey("When the request is malformed", func() {
			So(do(mux, http.MethodGet, "/streak/", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/streak/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/streak/alice?now=yesterday", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When upstream errors occur they map to statuses", func() {
			cases := []struct {
				err  error
				code int
			}{
				{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound},
				{judge.ErrUnknownUser, http.StatusNotFound},
				{errors.New("connection refused"), http.StatusBadGateway},
				{context.DeadlineExceeded, http.StatusGatewayTimeout},
			}
			for _, tc := range cases {
				deps.streakErr = tc.err
				So(do(mux, http.MethodGet, "/streak/alice", "").Code, ShouldEqual, tc.code)
			}
		})

		Convey("When requesting activity", func() {
			w := do(mux, http.MethodGet, "/activity/alice?days=14&now=2025-07-10T00:00:00Z", "")
			var report model.ActivityReport
			decode(w, &report)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(report.DailyActivity), ShouldEqual, 14)

			So(do(mux, http.MethodGet, "/activity/alice", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastDays, ShouldEqual, 7)
		})

		Convey("When activity is requested with a bad window", func() {
			for _, q := range []string{"days=0", "days=-3", "days=abc"} {
				w := do(mux, http.MethodGet, "/activity/alice?"+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "invalid_window")
			}
		})
	})
}

func TestPartyHandler(t *testing.T) {
	Convey("Given a party analytics endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When posting a valid party", func() {
			body := `{"days":14,"now":"2025-07-10T09:00:00Z","members":[
				{"member_id":" alice ","display_name":"Alice","joined_at":"2025-01-01T00:00:00Z"},
				{"member_id":"bob"}
			]}`
			w := do(mux, http.MethodPost, "/party/analytics", body)
			var report model.GroupReport
			decode(w, &report)

			Convey("Then the report is returned for the requested window", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(report.DailyActivity), ShouldEqual, 14)
				So(len(report.WeeklyTrends), ShouldEqual, 2)
				So(deps.lastDays, ShouldEqual, 14)
				So(deps.lastParty[0].ID, ShouldEqual, "alice")
				So(deps.lastParty[0].JoinedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When days is omitted the default window is used", func() {
			w := do(mux, http.MethodPost, "/party/analytics", `{"members":[{"member_id":"a"}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastDays, ShouldEqual, 7)
		})

		Convey("When days is explicitly invalid", func() {
			w := do(mux, http.MethodPost, "/party/analytics", `{"days":0,"members":[{"member_id":"a"}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid_window")
		})

		Convey("When the party itself is malformed", func() {
			many := make([]string, 1001)
			for i := range many {
				many[i] = fmt.Sprintf(`{"member_id":"m%d"}`, i)
			}
			for _, body := range []string{
				`{"members":[{"member_id":""}]}`,
				`{"members":[{"member_id":"a"},{"member_id":"a"}]}`,
				`{"members":[{"member_id":"a","joined_at":"soon"}]}`,
				`{"now":"later","members":[]}`,
				`{"members":[` + strings.Join(many, ",") + `]}`,
				`[]`,
			} {
				So(do(mux, http.MethodPost, "/party/analytics", body).Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}
