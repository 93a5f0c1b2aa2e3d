package activity

import (
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

// CalculateStreak computes the current and longest consecutive-day streaks.
//
// The current streak is anchored at today if today is active, otherwise at
// yesterday (one-day grace), otherwise it is zero. The longest streak scans
// the whole set and is never smaller than the current streak.
func CalculateStreak(days model.DaySet, now time.Time) model.StreakResult {
	if len(days) == 0 {
		return model.StreakResult{}
	}

	result := model.StreakResult{
		CurrentStreak: currentStreak(days, model.DayKeyOf(now)),
		LongestStreak: longestStreak(days),
	}
	if last, ok := days.Max(); ok {
		result.LastActiveDay = &last
	}
	if result.CurrentStreak > result.LongestStreak {
		result.LongestStreak = result.CurrentStreak
	}
	return result
}

// StreakFromKeys is CalculateStreak over a list that may repeat days.
func StreakFromKeys(keys []model.DayKey, now time.Time) model.StreakResult {
	return CalculateStreak(model.NewDaySet(keys...), now)
}

func currentStreak(days model.DaySet, today model.DayKey) int {
	anchor := today
	if !days.Has(anchor) {
		anchor = today.AddDays(-1)
		if !days.Has(anchor) {
			return 0
		}
	}

	n := 0
	for d := anchor; days.Has(d); d = d.AddDays(-1) {
		n++
	}
	return n
}

func longestStreak(days model.DaySet) int {
	sorted := days.Sorted()
	if len(sorted) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysUntil(sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
