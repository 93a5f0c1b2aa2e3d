package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Pattern is how often a synthetic member solves problems.
type Pattern int

// Activity patterns assigned round-robin to members.
const (
	PatternDaily Pattern = iota
	PatternWeekdays
	PatternSporadic
	PatternLapsed
	PatternIdle
	patternCount
)

const (
	sporadicChance  = 0.4
	maxSolvedPerDay = 3
	lapsedGapDays   = 3
)

func (p Pattern) String() string {
	switch p {
	case PatternDaily:
		return "daily"
	case PatternWeekdays:
		return "weekdays"
	case PatternSporadic:
		return "sporadic"
	case PatternLapsed:
		return "lapsed"
	case PatternIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Generate builds members and their submissions over days calendar days
// ending at now. Equal seeds give equal timestamps and members; event IDs
// are always fresh.
func Generate(members, days int, now time.Time, seed uint64) ([]Member, []Submission) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	today := now.UTC().Truncate(24 * time.Hour)

	party := make([]Member, members)
	var subs []Submission
	for i := range party {
		id := fmt.Sprintf("member-%03d", i+1)
		pattern := Pattern(i % int(patternCount))
		party[i] = Member{
			ID:          id,
			DisplayName: fmt.Sprintf("Member %d (%s)", i+1, pattern),
			JoinedAt:    today.AddDate(0, 0, -days-(members-i)),
		}

		for offset := days - 1; offset >= 0; offset-- {
			day := today.AddDate(0, 0, -offset)
			if !active(pattern, day, offset, rng) {
				continue
			}
			for n := 1 + rng.IntN(maxSolvedPerDay); n > 0; n-- {
				at := day.Add(time.Duration(rng.Int64N(int64(24 * time.Hour))))
				if at.After(now) {
					at = now
				}
				subs = append(subs, Submission{EventID: uuid.NewString(), MemberID: id, TS: at.Unix()})
			}
		}
	}
	return party, subs
}

func active(p Pattern, day time.Time, offset int, rng *rand.Rand) bool {
	switch p {
	case PatternDaily:
		return true
	case PatternWeekdays:
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case PatternSporadic:
		return rng.Float64() < sporadicChance
	case PatternLapsed:
		return offset >= lapsedGapDays
	default:
		return false
	}
}
