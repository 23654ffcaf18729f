package notes

import (
	"fmt"
	"math"
	"time"
)

const (
	minutesInDay           = 1440
	minutesInAlmostTwoDays = 2520
	minutesInMonth         = 43200
	minutesInTwoMonths     = 86400
)

// Distance describes the gap between t and now in words ("about 3 hours",
// "2 days", "over 1 year"), using the same thresholds as date-fns
// formatDistance.
func Distance(t, now time.Time) string {
	earlier, later := t, now
	if t.After(now) {
		earlier, later = now, t
	}

	seconds := int64(later.Sub(earlier) / time.Second)
	minutes := int64(math.Round(float64(seconds) / 60))

	switch {
	case minutes < 2:
		if minutes == 0 {
			return "less than a minute"
		}
		return "1 minute"
	case minutes < 45:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		return "about 1 hour"
	case minutes < minutesInDay:
		return plural("about %d hour", roundDiv(minutes, 60))
	case minutes < minutesInAlmostTwoDays:
		return "1 day"
	case minutes < minutesInMonth:
		return plural("%d day", roundDiv(minutes, minutesInDay))
	case minutes < minutesInTwoMonths:
		return plural("about %d month", roundDiv(minutes, minutesInMonth))
	}

	months := monthsBetween(earlier, later)
	if months < 12 {
		return plural("%d month", roundDiv(minutes, minutesInMonth))
	}

	years := months / 12
	switch rest := months % 12; {
	case rest < 3:
		return plural("about %d year", years)
	case rest < 9:
		return plural("over %d year", years)
	default:
		return plural("almost %d year", years+1)
	}
}

// DistanceWithSuffix is Distance phrased from now: "in 2 days" or "3 hours ago".
func DistanceWithSuffix(t, now time.Time) string {
	d := Distance(t, now)
	if t.After(now) {
		return "in " + d
	}
	return d + " ago"
}

func plural(format string, n int64) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}

func roundDiv(n, d int64) int64 {
	return int64(math.Round(float64(n) / float64(d)))
}

// monthsBetween counts full calendar months from earlier to later.
func monthsBetween(earlier, later time.Time) int64 {
	later = later.In(earlier.Location())
	months := int64(later.Year()-earlier.Year())*12 + int64(later.Month()-earlier.Month())
	if months > 0 && earlier.AddDate(0, int(months), 0).After(later) {
		months--
	}
	return months
}
