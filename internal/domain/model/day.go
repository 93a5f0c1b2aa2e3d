// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"time"
)

// DayLayout is the textual form of a DayKey.
const DayLayout = "2006-01-02"

// DayKey is a UTC calendar date. It is the unit of activity.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf returns the UTC calendar date of t.
func DayKeyOf(t time.Time) DayKey {
	y, m, d := t.UTC().Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// ParseDayKey parses a YYYY-MM-DD date.
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return DayKey{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayKeyOf(t), nil
}

// Time returns midnight UTC of the day.
func (k DayKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day n calendar days after k (n may be negative).
func (k DayKey) AddDays(n int) DayKey {
	return DayKeyOf(k.Time().AddDate(0, 0, n))
}

// DaysUntil returns the number of calendar days from k to other.
// UTC has no DST, so every day is exactly 24h.
func (k DayKey) DaysUntil(other DayKey) int {
	return int(other.Time().Sub(k.Time()) / (24 * time.Hour))
}

// Compare returns -1, 0 or +1 depending on whether k is before, equal to or after other.
func (k DayKey) Compare(other DayKey) int {
	switch {
	case k.Year != other.Year:
		return cmpInt(k.Year, other.Year)
	case k.Month != other.Month:
		return cmpInt(int(k.Month), int(other.Month))
	default:
		return cmpInt(k.Day, other.Day)
	}
}

// Before reports whether k is strictly earlier than other.
func (k DayKey) Before(other DayKey) bool { return k.Compare(other) < 0 }

// IsZero reports whether k is the zero DayKey.
func (k DayKey) IsZero() bool { return k == DayKey{} }

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DayKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDayKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// DaySet is a set of distinct DayKeys.
type DaySet map[DayKey]struct{}

// NewDaySet builds a set from keys; duplicates collapse.
func NewDaySet(keys ...DayKey) DaySet {
	s := make(DaySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s DaySet) Add(k DayKey) { s[k] = struct{}{} }

// Has reports whether k is in the set. A nil set contains nothing.
func (s DaySet) Has(k DayKey) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of distinct days.
func (s DaySet) Len() int { return len(s) }

// Sorted returns the days in ascending order.
func (s DaySet) Sorted() []DayKey {
	keys := make([]DayKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// Max returns the latest day, or false when the set is empty.
func (s DaySet) Max() (DayKey, bool) {
	var (
		maxKey DayKey
		found  bool
	)
	for k := range s {
		if !found || maxKey.Before(k) {
			maxKey, found = k, true
		}
	}
	return maxKey, found
}

// CountBetween counts days in [from, to], inclusive on both ends.
func (s DaySet) CountBetween(from, to DayKey) int {
	n := 0
	for k := range s {
		if !k.Before(from) && !to.Before(k) {
			n++
		}
	}
	return n
}
