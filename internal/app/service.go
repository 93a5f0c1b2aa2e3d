// Package service wires ingestion, storage and the activity engine into the
// operations the HTTP API depends on.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/streakd/internal/adapters/mq/queue"
	workerpool "github.com/okian/streakd/internal/adapters/mq/worker"
	"github.com/okian/streakd/internal/adapters/repository"
	"github.com/okian/streakd/internal/domain/activity"
	"github.com/okian/streakd/internal/domain/dedupe"
	"github.com/okian/streakd/internal/domain/group"
	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/logger"
	"github.com/okian/streakd/pkg/metrics"
)

const (
	defaultQueueSize          = 100_000
	defaultDedupeSize         = 500_000
	defaultMaxEventsPerMember = 10_000
	defaultMaxInFlight        = 4
	defaultFetchTimeout       = 10 * time.Second
	defaultWindowDays         = 7
	defaultMaxWindowDays      = 365
	stopTimeout               = 30 * time.Second
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store      *repository.MemoryStore
	deduper    dedupe.Deduper
	queue      eventqueue.Queue
	workerPool *workerpool.Pool
	aggregator *group.Aggregator
	fetcher    group.Fetcher

	workerCount        int
	queueSize          int
	dedupeSize         int
	maxEventsPerMember int
	maxInFlight        int
	fetchTimeout       time.Duration
	defaultWindowDays  int
	maxWindowDays      int
	clock              func() time.Time

	started bool

	logger logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU() * 2,
		queueSize:          defaultQueueSize,
		dedupeSize:         defaultDedupeSize,
		maxEventsPerMember: defaultMaxEventsPerMember,
		maxInFlight:        defaultMaxInFlight,
		fetchTimeout:       defaultFetchTimeout,
		defaultWindowDays:  defaultWindowDays,
		maxWindowDays:      defaultMaxWindowDays,
		clock:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxWindowDays < s.defaultWindowDays {
		s.maxWindowDays = s.defaultWindowDays
	}
	return s
}

// Start creates and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting streak service...")

	s.store = repository.NewMemoryStore(repository.WithMaxEventsPerMember(s.maxEventsPerMember))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	fetcher := s.fetcher
	if fetcher == nil {
		fetcher = s.store
	}
	s.aggregator = group.New(fetcher,
		group.WithMaxInFlight(s.maxInFlight),
		group.WithFetchTimeout(s.fetchTimeout),
		group.WithLogger(s.logger.Named("group")),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "streak service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxInFlight", s.maxInFlight),
		logger.Duration("fetchTimeout", s.fetchTimeout),
	)
	return nil
}

// Stop drains the queue into the store and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping streak service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "streak service stopped")
}

// SeenAndRecord reports whether a submission ID was seen and records it if
// not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	d := s.dedupe()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord forgets a submission ID so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if d := s.dedupe(); d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the number of remembered submission IDs.
func (s *Service) Size() int64 {
	if d := s.dedupe(); d != nil {
		return d.Size()
	}
	return 0
}

// Enqueue submits a submission for asynchronous storage.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return false
	}

	if !q.Enqueue(ctx, sub) {
		s.logger.Debug(ctx, "submission rejected by queue",
			logger.String("eventID", sub.EventID),
			logger.String("member", sub.MemberID),
		)
		return false
	}
	return true
}

// Streak computes one member's current and longest streak. Unlike group
// analytics, a fetch failure here is returned to the caller.
func (s *Service) Streak(ctx context.Context, memberID string, now time.Time) (model.StreakReport, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(metrics.KindStreak, float64(time.Since(start).Milliseconds()))
	}()

	days, err := s.memberDays(ctx, memberID)
	if err != nil {
		return model.StreakReport{}, err
	}
	result := activity.CalculateStreak(days, s.resolveNow(now))
	return model.StreakReport{
		MemberID:     memberID,
		StreakResult: result,
		Achievements: activity.AchievementProgress(result, nil),
	}, nil
}

// MemberActivity returns one member's daily activity and weekly trends.
func (s *Service) MemberActivity(ctx context.Context, memberID string, days int, now time.Time) (model.ActivityReport, error) {
	if err := s.checkWindow(days); err != nil {
		return model.ActivityReport{}, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(metrics.KindActivity, float64(time.Since(start).Milliseconds()))
	}()

	set, err := s.memberDays(ctx, memberID)
	if err != nil {
		return model.ActivityReport{}, err
	}
	daily, err := activity.DailyActivity(s.resolveNow(now), days, []activity.Source{{ID: memberID, Days: set}})
	if err != nil {
		return model.ActivityReport{}, err
	}
	return model.ActivityReport{
		MemberID:      memberID,
		Days:          days,
		DailyActivity: daily,
		WeeklyTrends:  activity.WeeklyTrends(daily),
	}, nil
}

// PartyAnalytics computes the group report for members.
func (s *Service) PartyAnalytics(ctx context.Context, members []model.Member, days int, now time.Time) (model.GroupReport, error) {
	if err := s.checkWindow(days); err != nil {
		return model.GroupReport{}, err
	}
	s.mu.RLock()
	agg := s.aggregator
	s.mu.RUnlock()
	if agg == nil {
		return model.GroupReport{}, ErrNotStarted
	}
	return agg.Aggregate(ctx, members, days, s.resolveNow(now))
}

// DefaultWindowDays returns the window used when a request names none.
func (s *Service) DefaultWindowDays() int {
	return s.defaultWindowDays
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"defaultWindowDays": s.defaultWindowDays,
		"maxWindowDays":     s.maxWindowDays,
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		submissions := s.store.Count(ctx)
		members := len(s.store.Members(ctx))

		stats["queueLength"] = queueLen
		stats["submissionsStored"] = submissions
		stats["membersTracked"] = members
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.workerPool.Processed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoreSize(submissions, members)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// memberDays fetches and normalizes a single member's events within the
// configured fetch timeout.
func (s *Service) memberDays(ctx context.Context, memberID string) (model.DaySet, error) {
	s.mu.RLock()
	started, fetcher := s.started, s.fetcher
	if fetcher == nil {
		fetcher = s.store
	}
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	fetchStart := time.Now()
	events, err := fetcher.FetchEvents(ctx, memberID)
	metrics.RecordMemberFetchLatency(float64(time.Since(fetchStart).Milliseconds()))
	if err != nil {
		metrics.RecordMemberFetchFailure("error")
		return nil, fmt.Errorf("fetch events for %s: %w", memberID, err)
	}

	days, skipped := activity.Normalize(events)
	if skipped > 0 {
		metrics.RecordMalformedEvents(skipped)
		s.logger.Debug(ctx, "skipped malformed events",
			logger.String("member", memberID),
			logger.Int("count", skipped),
		)
	}
	return days, nil
}

// checkWindow enforces [1, maxWindowDays].
func (s *Service) checkWindow(days int) error {
	if err := activity.ValidateWindow(days); err != nil {
		metrics.RecordInvalidWindow()
		return err
	}
	if days > s.maxWindowDays {
		metrics.RecordInvalidWindow()
		return fmt.Errorf("%w: %d exceeds maximum of %d days", activity.ErrInvalidWindow, days, s.maxWindowDays)
	}
	return nil
}

func (s *Service) resolveNow(now time.Time) time.Time {
	if now.IsZero() {
		return s.clock().UTC()
	}
	return now.UTC()
}
