package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoHours     = regexp.MustCompile(`(\d+)H`)
	isoMinutes   = regexp.MustCompile(`(\d+)M`)
	isoSeconds   = regexp.MustCompile(`(\d+)S`)
	plainMinutes = regexp.MustCompile(`(?i)(\d+)\s*min`)
	hoursMinutes = regexp.MustCompile(`(?i)(\d+)h\s*(\d+)m`)
	plainHours   = regexp.MustCompile(`(?i)(\d+)\s*h(?:ours?)?`)
)

// DurationMinutes parses "PT2H30M", "150 min", "2h 30m" or "2 hours" into
// whole minutes. ok is false when nothing could be parsed.
func DurationMinutes(s string) (minutes int, ok bool) {
	if strings.HasPrefix(s, "PT") {
		seconds := 0
		if m := isoHours.FindStringSubmatch(s); m != nil {
			seconds += atoi(m[1]) * 3600
		}
		if m := isoMinutes.FindStringSubmatch(s); m != nil {
			seconds += atoi(m[1]) * 60
		}
		if m := isoSeconds.FindStringSubmatch(s); m != nil {
			seconds += atoi(m[1])
		}
		return seconds / 60, true
	}

	if m := plainMinutes.FindStringSubmatch(s); m != nil {
		return atoi(m[1]), true
	}
	if m := hoursMinutes.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*60 + atoi(m[2]), true
	}
	if m := plainHours.FindStringSubmatch(s); m != nil {
		return atoi(m[1]) * 60, true
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
