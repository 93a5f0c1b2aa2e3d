// Package group computes party analytics across several members.
//
// An Aggregator fetches every member's raw events through a Fetcher with
// bounded concurrency, isolates per-member failures, and reduces the
// results into a deterministic GroupReport.
package group

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/logger"
	"github.com/okian/streakd/pkg/metrics"
)

const (
	defaultMaxInFlight  = 4
	defaultFetchTimeout = 10 * time.Second
)

// Fetcher returns the raw qualifying events of one member. Implementations
// may be slow or fail; the Aggregator never trusts them to honor ctx.
type Fetcher interface {
	FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, memberID string) ([]model.RawEvent, error)

// FetchEvents calls f.
func (f FetcherFunc) FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error) {
	return f(ctx, memberID)
}

// Aggregator builds group reports.
type Aggregator struct {
	fetcher      Fetcher
	maxInFlight  int
	fetchTimeout time.Duration
	logger       logger.Logger
}

// New creates an Aggregator reading member events from fetcher.
func New(fetcher Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:      fetcher,
		maxInFlight:  defaultMaxInFlight,
		fetchTimeout: defaultFetchTimeout,
		logger:       logger.Get().Named("group"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate computes the party report for members over a window of days
// ending at now. An invalid window is the only error it returns: members
// whose fetch fails or times out contribute zero activity instead.
func (a *Aggregator) Aggregate(ctx context.Context, members []model.Member, days int, now time.Time) (model.GroupReport, error) {
	window, err := activity.Window(now, days)
	if err != nil {
		metrics.RecordInvalidWindow()
		return model.GroupReport{}, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(metrics.KindParty, float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordPartySize(len(members))

	snapshots := a.collect(ctx, members, now)
	return reduce(snapshots, window, now)
}

// collect fetches every member concurrently. Each task writes only its own
// slot so the result order follows the input order.
func (a *Aggregator) collect(ctx context.Context, members []model.Member, now time.Time) []model.MemberSnapshot {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	requestID := uuid.NewString()
	snapshots := make([]model.MemberSnapshot, len(members))

	var g errgroup.Group
	g.SetLimit(a.maxInFlight)
	for i, m := range members {
		g.Go(func() error {
			snapshots[i] = a.snapshot(ctx, requestID, m, now)
			return nil
		})
	}
	_ = g.Wait()
	return snapshots
}

func (a *Aggregator) snapshot(ctx context.Context, requestID string, m model.Member, now time.Time) model.MemberSnapshot {
	snap := model.MemberSnapshot{Member: m, Days: model.DaySet{}}

	fetchStart := time.Now()
	events, err := a.fetch(ctx, m.ID)
	metrics.RecordMemberFetchLatency(float64(time.Since(fetchStart).Milliseconds()))
	if err != nil {
		metrics.RecordMemberFetchFailure(failureReason(err))
		a.logger.Warn(ctx, "member fetch failed",
			logger.String("request_id", requestID),
			logger.String("member", m.ID),
			logger.Error(err),
		)
		snap.Failed = true
		return snap
	}

	days, skipped := activity.Normalize(events)
	if skipped > 0 {
		metrics.RecordMalformedEvents(skipped)
		a.logger.Debug(ctx, "skipped malformed events",
			logger.String("request_id", requestID),
			logger.String("member", m.ID),
			logger.Int("count", skipped),
		)
	}
	snap.Days = days
	snap.Streak = activity.CalculateStreak(days, now)
	return snap
}

type fetchResult struct {
	events []model.RawEvent
	err    error
}

// fetch runs one fetcher call and stops waiting when ctx is done, even if
// the fetcher itself ignores ctx.
func (a *Aggregator) fetch(ctx context.Context, memberID string) ([]model.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchTimeout, err)
	}

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("%w: %v", ErrFetchPanic, r)}
			}
		}()
		events, err := a.fetcher.FetchEvents(ctx, memberID)
		done <- fetchResult{events: events, err: err}
	}()

	select {
	case res := <-done:
		return res.events, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrFetchTimeout, ctx.Err())
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrFetchPanic):
		return "panic"
	default:
		return "error"
	}
}

// reduce merges snapshots into a report. It is sequential and depends only
// on its inputs, never on the order in which fetches finished.
func reduce(snapshots []model.MemberSnapshot, window []model.DayKey, now time.Time) (model.GroupReport, error) {
	first, last := window[0], window[len(window)-1]

	sources := make([]activity.Source, len(snapshots))
	for i, s := range snapshots {
		sources[i] = activity.Source{ID: s.Member.ID, Days: s.Days}
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	daily, err := activity.DailyActivity(now, len(window), sources)
	if err != nil {
		return model.GroupReport{}, err
	}

	progress := make([]model.MemberProgress, len(snapshots))
	for i, s := range snapshots {
		progress[i] = model.MemberProgress{
			Member: s.Member,
			Streak: s.Streak,
			Total:  s.Days.CountBetween(first, last),
			Failed: s.Failed,
		}
	}

	return model.GroupReport{
		DailyActivity:  daily,
		MemberProgress: progress,
		WeeklyTrends:   activity.WeeklyTrends(daily),
		Summary:        summarize(progress, daily),
	}, nil
}

func summarize(progress []model.MemberProgress, daily []model.DailyActivityPoint) model.GroupSummary {
	var summary model.GroupSummary

	streakSum := 0
	best := -1
	for i, p := range progress {
		streakSum += p.Streak.CurrentStreak
		if p.Total > 0 {
			summary.ActiveMemberCount++
		}
		if best < 0 || outranks(p, progress[best]) {
			best = i
		}
	}
	if len(progress) > 0 {
		summary.AverageStreak = int(math.Round(float64(streakSum) / float64(len(progress))))
	}
	if best >= 0 && progress[best].Total > 0 {
		summary.TopPerformerID = progress[best].Member.ID
	}

	for _, p := range daily {
		if p.ActiveMemberCount == 0 {
			continue
		}
		summary.TotalDistinctActiveDays++
		if summary.MostActiveDay == nil || p.ActiveMemberCount > summary.MostActiveDay.Activity {
			summary.MostActiveDay = &model.DayActivity{Day: p.Day, Activity: p.ActiveMemberCount}
		}
	}
	return summary
}

// outranks reports whether p beats the current best. Equal totals go to the
// earlier join time when both are known, otherwise the current best stays.
func outranks(p, best model.MemberProgress) bool {
	if p.Total != best.Total {
		return p.Total > best.Total
	}
	if p.Member.JoinedAt.IsZero() || best.Member.JoinedAt.IsZero() {
		return false
	}
	return p.Member.JoinedAt.Before(best.Member.JoinedAt)
}
