// Package seed generates synthetic submission histories, posts them to a
// running streakd, and reads back party analytics.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL    string        // service root, e.g. http://localhost:9080
	Members    int           // number of synthetic members
	Days       int           // history length and analytics window
	Workers    int           // concurrent submitters
	Timeout    time.Duration // per HTTP request
	Seed       uint64        // generator seed; equal seeds give equal histories
	OutputFile string        // optional JSON dump of generated submissions
	SettleWait time.Duration // how long to wait for ingestion to finish
}

// Submission is the POST /events body.
type Submission struct {
	EventID  string `json:"event_id"`
	MemberID string `json:"member_id"`
	TS       int64  `json:"ts"`
}

// Member is one entry of the party analytics request.
type Member struct {
	ID          string    `json:"member_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Accepted   int
	Duplicate  int
	Failed     int
	StartTime  time.Time
	Duration   time.Duration
	Throughput float64
}
