package activity

import (
	"github.com/okian/streakd/internal/domain/model"
)

const daysPerWeek = 7

// WeeklyTrends rolls a daily series into whole 7-day buckets anchored at
// its newest day. Leftover days at the old end are dropped. A bucket's
// ProblemCount is the number of distinct days in it on which anyone was
// active, not a sum of problems.
func WeeklyTrends(points []model.DailyActivityPoint) []model.WeeklyTrendPoint {
	buckets := len(points) / daysPerWeek
	trends := make([]model.WeeklyTrendPoint, 0, buckets)

	for start := len(points) % daysPerWeek; start+daysPerWeek <= len(points); start += daysPerWeek {
		week := points[start : start+daysPerWeek]
		active := 0
		for _, p := range week {
			if p.ActiveMemberCount > 0 {
				active++
			}
		}
		trends = append(trends, model.WeeklyTrendPoint{
			WeekLabel:    week[0].Day.String(),
			ProblemCount: active,
		})
	}
	return trends
}

// DistinctActiveDays counts days in the series with any activity.
func DistinctActiveDays(points []model.DailyActivityPoint) int {
	n := 0
	for _, p := range points {
		if p.ActiveMemberCount > 0 {
			n++
		}
	}
	return n
}
