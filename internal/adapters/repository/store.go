// Package repository holds ingested submissions and serves them back as a
// member's raw event history.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/metrics"
)

const defaultMaxEventsPerMember = 10_000

// Store provides read/write access to submissions.
type Store interface {
	// Append records a submission for its member.
	Append(ctx context.Context, s model.Submission) error

	// FetchEvents returns a copy of the member's raw events in append order.
	// Returns ErrNotFound if the member never submitted anything.
	FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error)

	// Members returns the IDs of all members with stored submissions, sorted.
	Members(ctx context.Context) []string

	// Count returns the number of stored submissions.
	Count(ctx context.Context) int
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	events       map[string][]model.RawEvent
	total        int
	maxPerMember int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		events:       make(map[string][]model.RawEvent),
		maxPerMember: defaultMaxEventsPerMember,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a submission.
func (s *MemoryStore) Append(_ context.Context, sub model.Submission) error {
	member := strings.TrimSpace(sub.MemberID)
	if member == "" {
		return ErrInvalidMember
	}
	if strings.TrimSpace(sub.EventID) == "" {
		return fmt.Errorf("%w: member %s", ErrInvalidEventID, member)
	}

	s.mu.Lock()
	list := append(s.events[member], sub.Raw)
	s.total++
	if s.maxPerMember > 0 && len(list) > s.maxPerMember {
		drop := len(list) - s.maxPerMember
		list = append(list[:0:0], list[drop:]...)
		s.total -= drop
	}
	s.events[member] = list
	total, members := s.total, len(s.events)
	s.mu.Unlock()

	metrics.UpdateStoreSize(total, members)
	return nil
}

// FetchEvents returns the member's raw events.
func (s *MemoryStore) FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.events[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, memberID)
	}
	return append([]model.RawEvent(nil), list...), nil
}

// Members returns all known member IDs in ascending order.
func (s *MemoryStore) Members(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of stored submissions.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
