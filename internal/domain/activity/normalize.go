// Package activity implements the submission-activity engine: event
// normalization, streaks, and daily and weekly aggregation.
//
// Every function is pure and takes the reference instant explicitly.
package activity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

// Unix seconds of 9999-12-31T23:59:59Z; later values are rejected.
const maxEpochSeconds = 253402300799

// isoLayouts are tried in order for string timestamps that are not numeric.
// Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEvent validates one raw event into a SubmissionEvent.
func ParseEvent(raw model.RawEvent) (model.SubmissionEvent, error) {
	t, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return model.SubmissionEvent{}, err
	}
	return model.SubmissionEvent{OccurredAt: t.UTC()}, nil
}

// Normalize converts raw events into the deduplicated set of UTC days they
// fall on. Malformed records are skipped and counted; the order of events
// does not matter.
func Normalize(events []model.RawEvent) (days model.DaySet, skipped int) {
	days = make(model.DaySet)
	for _, raw := range events {
		ev, err := ParseEvent(raw)
		if err != nil {
			skipped++
			continue
		}
		days.Add(model.DayKeyOf(ev.OccurredAt))
	}
	return days, skipped
}

func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		if ts.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", ErrMalformedTimestamp)
		}
		return ts, nil
	case *time.Time:
		if ts == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrMalformedTimestamp)
		}
		return parseTimestamp(*ts)
	case int:
		return fromEpoch(float64(ts))
	case int32:
		return fromEpoch(float64(ts))
	case int64:
		return fromEpoch(float64(ts))
	case uint32:
		return fromEpoch(float64(ts))
	case uint64:
		return fromEpoch(float64(ts))
	case float32:
		return fromEpoch(float64(ts))
	case float64:
		return fromEpoch(ts)
	case json.Number:
		return parseString(ts.String())
	case string:
		return parseString(ts)
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing", ErrMalformedTimestamp)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrMalformedTimestamp, v)
	}
}

func parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpoch(float64(secs))
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(secs)
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

func fromEpoch(secs float64) (time.Time, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs > maxEpochSeconds {
		return time.Time{}, fmt.Errorf("%w: epoch %v out of range", ErrMalformedTimestamp, secs)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}
