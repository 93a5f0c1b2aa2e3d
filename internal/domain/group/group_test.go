package group_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/group"
	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

var now = time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)

func events(offsets ...int) []model.RawEvent {
	out := make([]model.RawEvent, len(offsets))
	for i, o := range offsets {
		out[i] = model.RawEvent{Timestamp: now.AddDate(0, 0, -o).Unix()}
	}
	return out
}

// stubFetcher serves canned events and fails for members listed in fail.
type stubFetcher struct {
	data  map[string][]model.RawEvent
	fail  map[string]error
	delay map[string]time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *stubFetcher) FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxInFlight.Load()
		if cur <= prev || s.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if d := s.delay[memberID]; d > 0 {
		time.Sleep(d)
	}
	if err := s.fail[memberID]; err != nil {
		return nil, err
	}
	return s.data[memberID], nil
}

func members(ids ...string) []model.Member {
	out := make([]model.Member, len(ids))
	for i, id := range ids {
		out[i] = model.Member{ID: id, DisplayName: id}
	}
	return out
}

func TestAggregateThreeMembers(t *testing.T) {
	Convey("Given A active all week, B active two days and C failing", t, func() {
		f := &stubFetcher{
			data: map[string][]model.RawEvent{
				"a": events(0, 1, 2, 3, 4, 5, 6),
				"b": events(0, 3),
			},
			fail: map[string]error{"c": errors.New("judge unavailable")},
		}
		agg := group.New(f)

		report, err := agg.Aggregate(context.Background(), members("a", "b", "c"), 7, now)

		Convey("Then the request succeeds with C counted as zero", func() {
			So(err, ShouldBeNil)
			So(len(report.DailyActivity), ShouldEqual, 7)
			So(report.Summary.ActiveMemberCount, ShouldEqual, 2)
			// (7 + 1 + 0) / 3 rounds to 3
			So(report.Summary.AverageStreak, ShouldEqual, 3)
			So(report.Summary.TopPerformerID, ShouldEqual, "a")
			So(report.Summary.TotalDistinctActiveDays, ShouldEqual, 7)
		})

		Convey("And member progress keeps input order and marks the failure", func() {
			So(len(report.MemberProgress), ShouldEqual, 3)
			So(report.MemberProgress[0].Total, ShouldEqual, 7)
			So(report.MemberProgress[1].Total, ShouldEqual, 2)
			So(report.MemberProgress[2].Failed, ShouldBeTrue)
			So(report.MemberProgress[2].Streak, ShouldResemble, model.StreakResult{})
		})

		Convey("And the most active day is the earliest two-member day", func() {
			So(report.Summary.MostActiveDay, ShouldNotBeNil)
			So(report.Summary.MostActiveDay.Day, ShouldResemble, model.DayKeyOf(now).AddDays(-3))
			So(report.Summary.MostActiveDay.Activity, ShouldEqual, 2)
		})

		Convey("And one whole week is reported", func() {
			So(len(report.WeeklyTrends), ShouldEqual, 1)
			So(report.WeeklyTrends[0].ProblemCount, ShouldEqual, 7)
		})
	})
}

func TestAggregateFailureEquivalence(t *testing.T) {
	Convey("Given a party where one member fails", t, func() {
		data := map[string][]model.RawEvent{
			"a": events(0, 1, 5),
			"b": events(2, 9, 10),
		}
		failing := &stubFetcher{data: data, fail: map[string]error{"x": errors.New("boom")}}
		empty := &stubFetcher{data: data}

		got, err := group.New(failing).Aggregate(context.Background(), members("a", "x", "b"), 14, now)
		So(err, ShouldBeNil)
		want, err := group.New(empty).Aggregate(context.Background(), members("a", "x", "b"), 14, now)
		So(err, ShouldBeNil)

		Convey("Then the report equals one where that member had no events", func() {
			So(got.DailyActivity, ShouldResemble, want.DailyActivity)
			So(got.WeeklyTrends, ShouldResemble, want.WeeklyTrends)
			So(got.Summary, ShouldResemble, want.Summary)
			So(got.MemberProgress[1].Failed, ShouldBeTrue)
			So(want.MemberProgress[1].Failed, ShouldBeFalse)
		})
	})
}

func TestAggregateDeterminism(t *testing.T) {
	Convey("Given fetches that finish in different orders", t, func() {
		data := map[string][]model.RawEvent{
			"a": events(0, 1, 2),
			"b": events(1, 4),
			"c": events(3, 4, 5, 6),
		}
		fast := &stubFetcher{data: data}
		slowFirst := &stubFetcher{data: data, delay: map[string]time.Duration{"a": 30 * time.Millisecond}}

		r1, err := group.New(fast).Aggregate(context.Background(), members("a", "b", "c"), 7, now)
		So(err, ShouldBeNil)
		r2, err := group.New(slowFirst, group.WithMaxInFlight(3)).Aggregate(context.Background(), members("a", "b", "c"), 7, now)
		So(err, ShouldBeNil)

		Convey("Then the reports are identical", func() {
			So(r2, ShouldResemble, r1)
		})
	})
}

func TestAggregateWindow(t *testing.T) {
	Convey("Given an invalid window", t, func() {
		f := &stubFetcher{}
		for _, days := range []int{0, -7} {
			_, err := group.New(f).Aggregate(context.Background(), members("a"), days, now)

			So(errors.Is(err, activity.ErrInvalidWindow), ShouldBeTrue)
		}
		So(f.maxInFlight.Load(), ShouldEqual, int32(0))
	})

	Convey("Given an empty party", t, func() {
		report, err := group.New(&stubFetcher{}).Aggregate(context.Background(), nil, 10, now)

		Convey("Then the window is zero-filled and the summary is empty", func() {
			So(err, ShouldBeNil)
			So(len(report.DailyActivity), ShouldEqual, 10)
			So(report.MemberProgress, ShouldBeEmpty)
			So(report.Summary.AverageStreak, ShouldEqual, 0)
			So(report.Summary.TopPerformerID, ShouldBeEmpty)
			So(report.Summary.MostActiveDay, ShouldBeNil)
		})
	})
}

func TestAggregateTopPerformer(t *testing.T) {
	Convey("Given members tied on activity", t, func() {
		f := &stubFetcher{data: map[string][]model.RawEvent{
			"early": events(0, 1),
			"late":  events(2, 3),
			"first": events(4, 5),
		}}
		joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		Convey("When join times are known the earliest joiner wins", func() {
			party := []model.Member{
				{ID: "late", JoinedAt: joined.AddDate(0, 2, 0)},
				{ID: "early", JoinedAt: joined},
			}
			report, err := group.New(f).Aggregate(context.Background(), party, 7, now)
			So(err, ShouldBeNil)
			So(report.Summary.TopPerformerID, ShouldEqual, "early")
		})

		Convey("When join times are missing the first in input order wins", func() {
			report, err := group.New(f).Aggregate(context.Background(), members("first", "early", "late"), 7, now)
			So(err, ShouldBeNil)
			So(report.Summary.TopPerformerID, ShouldEqual, "first")
		})
	})

	Convey("Given nobody active in the window", t, func() {
		f := &stubFetcher{data: map[string][]model.RawEvent{"a": events(40)}}
		report, err := group.New(f).Aggregate(context.Background(), members("a"), 7, now)

		So(err, ShouldBeNil)
		So(report.Summary.TopPerformerID, ShouldBeEmpty)
		So(report.Summary.ActiveMemberCount, ShouldEqual, 0)
		So(report.MemberProgress[0].Streak.LongestStreak, ShouldEqual, 1)
	})
}

func TestAggregateConcurrencyAndTimeout(t *testing.T) {
	Convey("Given a bound of two in-flight fetches", t, func() {
		delays := map[string]time.Duration{}
		ids := make([]string, 10)
		for i := range ids {
			ids[i] = fmt.Sprintf("m%02d", i)
			delays[ids[i]] = 10 * time.Millisecond
		}
		f := &stubFetcher{delay: delays}

		_, err := group.New(f, group.WithMaxInFlight(2)).Aggregate(context.Background(), members(ids...), 7, now)

		So(err, ShouldBeNil)
		So(f.maxInFlight.Load(), ShouldBeLessThanOrEqualTo, int32(2))
	})

	Convey("Given a fetcher that ignores its context", t, func() {
		release := make(chan struct{})
		var once sync.Once
		defer once.Do(func() { close(release) })

		f := group.FetcherFunc(func(_ context.Context, id string) ([]model.RawEvent, error) {
			if id == "stuck" {
				<-release
			}
			return events(0), nil
		})
		agg := group.New(f, group.WithFetchTimeout(50*time.Millisecond))

		start := time.Now()
		report, err := agg.Aggregate(context.Background(), members("ok", "stuck"), 7, now)
		elapsed := time.Since(start)
		once.Do(func() { close(release) })

		Convey("Then the timeout marks the stuck member failed and returns", func() {
			So(err, ShouldBeNil)
			So(elapsed, ShouldBeLessThan, 2*time.Second)
			So(report.MemberProgress[0].Failed, ShouldBeFalse)
			So(report.MemberProgress[1].Failed, ShouldBeTrue)
			So(report.Summary.ActiveMemberCount, ShouldEqual, 1)
		})
	})

	Convey("Given a caller context that is already canceled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := group.New(&stubFetcher{}).Aggregate(ctx, members("a", "b"), 7, now)

		Convey("Then every member is failed but the report is still built", func() {
			So(err, ShouldBeNil)
			So(report.MemberProgress[0].Failed, ShouldBeTrue)
			So(report.MemberProgress[1].Failed, ShouldBeTrue)
			So(len(report.DailyActivity), ShouldEqual, 7)
		})
	})

	Convey("Given a fetcher that panics", t, func() {
		f := group.FetcherFunc(func(context.Context, string) ([]model.RawEvent, error) {
			panic("bad driver")
		})
		report, err := group.New(f).Aggregate(context.Background(), members("a"), 7, now)

		So(err, ShouldBeNil)
		So(report.MemberProgress[0].Failed, ShouldBeTrue)
	})
}

func TestAggregateMalformedEvents(t *testing.T) {
	Convey("Given a member with some unreadable events", t, func() {
		f := &stubFetcher{data: map[string][]model.RawEvent{
			"a": append(events(0, 1), model.RawEvent{Timestamp: "garbage"}, model.RawEvent{}),
		}}
		report, err := group.New(f).Aggregate(context.Background(), members("a"), 7, now)

		Convey("Then the readable ones still count", func() {
			So(err, ShouldBeNil)
			So(report.MemberProgress[0].Failed, ShouldBeFalse)
			So(report.MemberProgress[0].Total, ShouldEqual, 2)
			So(report.MemberProgress[0].Streak.CurrentStreak, ShouldEqual, 2)
		})
	})
}
