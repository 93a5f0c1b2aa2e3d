package model

import "time"

// RawEvent is a loosely typed "problem solved" record as delivered by an
// event source. Timestamp may be epoch seconds (integer, float, json.Number
// or numeric string), an ISO-8601 string, or a time.Time.
type RawEvent struct {
	Timestamp any `json:"timestamp"`
}

// SubmissionEvent is a validated qualifying event.
type SubmissionEvent struct {
	OccurredAt time.Time
}

// Submission is one ingested event addressed to a member.
type Submission struct {
	EventID  string
	MemberID string
	Raw      RawEvent
}

// Member is one party member as supplied by the caller.
type Member struct {
	ID          string    `json:"member_id"`
	DisplayName string    `json:"display_name,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}
