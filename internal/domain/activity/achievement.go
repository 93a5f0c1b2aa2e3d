package activity

import (
	"sort"

	"github.com/okian/streakd/internal/domain/model"
)

// DefaultStreakMilestones are the streak lengths rewarded by default.
var DefaultStreakMilestones = []int{3, 7, 14, 30, 100}

// AchievementProgress reports how far a streak is toward each milestone.
// A milestone counts as achieved once the longest streak reached it;
// progress is measured on the current streak for milestones still open.
func AchievementProgress(streak model.StreakResult, milestones []int) []model.Achievement {
	if milestones == nil {
		milestones = DefaultStreakMilestones
	}
	sorted := append([]int(nil), milestones...)
	sort.Ints(sorted)

	out := make([]model.Achievement, 0, len(sorted))
	for _, m := range sorted {
		if m < 1 {
			continue
		}
		a := model.Achievement{Threshold: m}
		if streak.LongestStreak >= m {
			a.Achieved = true
			a.Progress = 1
		} else {
			a.Progress = float64(streak.CurrentStreak) / float64(m)
		}
		out = append(out, a)
	}
	return out
}
