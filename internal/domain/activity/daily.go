package activity

import (
	"fmt"
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

// Source is one contributor to a daily histogram, usually a party member.
type Source struct {
	ID   string
	Days model.DaySet
	// Counts optionally carries solved problems per day. Days missing from
	// Counts, or a nil map, count as exactly one problem when active.
	Counts map[model.DayKey]int
}

// problemsOn returns the source's problem count for an active day.
func (s Source) problemsOn(day model.DayKey) int {
	if n := s.Counts[day]; n > 0 {
		return n
	}
	return 1
}

// ValidateWindow rejects non-positive window sizes.
func ValidateWindow(days int) error {
	if days < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, days)
	}
	return nil
}

// Window returns the days calendar days ending today (UTC), oldest first.
func Window(now time.Time, days int) ([]model.DayKey, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}
	today := model.DayKeyOf(now)
	out := make([]model.DayKey, days)
	for i := range out {
		out[i] = today.AddDays(i - days + 1)
	}
	return out, nil
}

// DailyActivity buckets sources into exactly days points, oldest first,
// including days on which nobody was active.
func DailyActivity(now time.Time, days int, sources []Source) ([]model.DailyActivityPoint, error) {
	window, err := Window(now, days)
	if err != nil {
		return nil, err
	}

	points := make([]model.DailyActivityPoint, len(window))
	for i, day := range window {
		p := model.DailyActivityPoint{Day: day}
		for _, src := range sources {
			if !src.Days.Has(day) {
				continue
			}
			p.ActiveMemberCount++
			p.ProblemCount += src.problemsOn(day)
		}
		points[i] = p
	}
	return points, nil
}
