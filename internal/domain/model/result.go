package model

// StreakResult is the streak state of one user at a reference instant.
type StreakResult struct {
	CurrentStreak int     `json:"currentStreak"`
	LongestStreak int     `json:"longestStreak"`
	LastActiveDay *DayKey `json:"lastActiveDay,omitempty"`
}

// Achievement reports progress toward a streak milestone.
type Achievement struct {
	Threshold int     `json:"threshold"`
	Achieved  bool    `json:"achieved"`
	Progress  float64 `json:"progress"`
}

// StreakReport is the personal streak view of one member.
type StreakReport struct {
	MemberID string `json:"memberId"`
	StreakResult
	Achievements []Achievement `json:"achievements"`
}

// DailyActivityPoint is one calendar day of a window.
type DailyActivityPoint struct {
	Day               DayKey `json:"day"`
	ProblemCount      int    `json:"problemCount"`
	ActiveMemberCount int    `json:"activeMemberCount"`
}

// WeeklyTrendPoint is one whole 7-day bucket of a window.
type WeeklyTrendPoint struct {
	WeekLabel    string `json:"weekLabel"`
	ProblemCount int    `json:"problemCount"`
}

// ActivityReport is the single-member daily and weekly view.
type ActivityReport struct {
	MemberID      string               `json:"memberId"`
	Days          int                  `json:"days"`
	DailyActivity []DailyActivityPoint `json:"dailyActivity"`
	WeeklyTrends  []WeeklyTrendPoint   `json:"weeklyTrends"`
}

// MemberSnapshot is the per-member intermediate of one group aggregation.
type MemberSnapshot struct {
	Member Member
	Streak StreakResult
	Days   DaySet
	Failed bool
}

// MemberProgress is the per-member line of a group report.
type MemberProgress struct {
	Member Member       `json:"member"`
	Streak StreakResult `json:"streak"`
	Total  int          `json:"total"`
	Failed bool         `json:"failed,omitempty"`
}

// DayActivity names a day and how many members were active on it.
type DayActivity struct {
	Day      DayKey `json:"day"`
	Activity int    `json:"activity"`
}

// GroupSummary is derived per request and never cached.
type GroupSummary struct {
	ActiveMemberCount       int          `json:"activeMemberCount"`
	AverageStreak           int          `json:"averageStreak"`
	TopPerformerID          string       `json:"topPerformerId,omitempty"`
	MostActiveDay           *DayActivity `json:"mostActiveDay,omitempty"`
	TotalDistinctActiveDays int          `json:"totalDistinctActiveDays"`
}

// GroupReport is the full party analytics response.
type GroupReport struct {
	DailyActivity  []DailyActivityPoint `json:"dailyActivity"`
	MemberProgress []MemberProgress     `json:"memberProgress"`
	WeeklyTrends   []WeeklyTrendPoint   `json:"weeklyTrends"`
	Summary        GroupSummary         `json:"summary"`
}
