// Package frtime resolves French natural-language date/time preferences
// ("demain matin", "mardi 10h30", "lundi prochain") into concrete local
// timestamps. Parsing is fail-open: unrecognized input resolves to the
// reference day at the default hour, never to an error, because every
// guess is followed by an explicit confirmation step in the dialogue.
package frtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultHour is used when neither a time-of-day keyword nor an explicit
// time is present.
const DefaultHour = 10

// weekday lookup must be ordered: text like "mardi ou jeudi" resolves to
// the first name that appears in this list, not a random map hit.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"lundi", time.Monday},
	{"mardi", time.Tuesday},
	{"mercredi", time.Wednesday},
	{"jeudi", time.Thursday},
	{"vendredi", time.Friday},
	{"samedi", time.Saturday},
	{"dimanche", time.Sunday},
}

// explicitTimeRE matches "10h", "10h30", "10:30", "10 h 15".
var explicitTimeRE = regexp.MustCompile(`(\d{1,2})\s*(?:h|:)\s?(\d{0,2})?`)

// Parse resolves text against the reference instant ref in loc.
//
// Day resolution precedence: aujourd'hui, après-demain, demain, a weekday
// name (next future occurrence, plus a week when qualified by
// "prochain"), else the reference day. Time resolution: matin=9h,
// après-midi=14h, soir=18h, overridden by any explicit "HhMM"/"H:MM"
// pattern; hours beyond 23 wrap modulo 24.
func Parse(text string, ref time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.ToLower(text)
	ref = ref.In(loc)

	day := resolveDay(s, ref)
	hour, minute := resolveClock(s)

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

func resolveDay(s string, ref time.Time) time.Time {
	switch {
	case strings.Contains(s, "aujourd"):
		return ref
	case strings.Contains(s, "après-demain") || strings.Contains(s, "apres-demain"):
		return ref.AddDate(0, 0, 2)
	case strings.Contains(s, "demain"):
		return ref.AddDate(0, 0, 1)
	}

	weekOffset := 0
	if strings.Contains(s, "prochain") {
		weekOffset = 1
	}
	for _, wd := range weekdays {
		if strings.Contains(s, wd.name) {
			return nextWeekday(ref, wd.day, weekOffset)
		}
	}
	return ref
}

// nextWeekday returns the next future occurrence of target; a reference
// day that already matches skips to the following week.
func nextWeekday(ref time.Time, target time.Weekday, weekOffset int) time.Time {
	daysAhead := (int(target) - int(ref.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	daysAhead += 7 * weekOffset
	return ref.AddDate(0, 0, daysAhead)
}

func resolveClock(s string) (hour, minute int) {
	hour = -1
	switch {
	case strings.Contains(s, "matin"):
		hour = 9
	case containsAfternoon(s):
		hour = 14
	case strings.Contains(s, "soir"):
		hour = 18
	}

	if m := explicitTimeRE.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h > 23 {
			h = h % 24
		}
		hour = h
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
	}

	if hour < 0 {
		hour = DefaultHour
	}
	return hour, minute
}

// Band is a coarse time-of-day preference.
type Band string

const (
	BandNone      Band = ""
	BandMorning   Band = "matin"
	BandAfternoon Band = "après-midi"
	BandEvening   Band = "soir"
)

// DetectBand extracts a time-of-day band keyword from text, if any.
// Only the full "après-midi" keyword counts as a band; a bare "après"
// would misread day terms like "après-demain".
func DetectBand(text string) Band {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "matin"):
		return BandMorning
	case containsAfternoon(s):
		return BandAfternoon
	case strings.Contains(s, "soir"):
		return BandEvening
	}
	return BandNone
}

func containsAfternoon(s string) bool {
	for _, k := range []string{"après-midi", "apres-midi", "après midi", "apres midi"} {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

var (
	frDays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

	frMonths = [...]string{"", "janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// FormatHuman renders t as a French label, e.g. "mardi 14 janvier à 10h30".
func FormatHuman(t time.Time) string {
	return fmt.Sprintf("%s %d %s à %02dh%02d",
		frDays[t.Weekday()], t.Day(), frMonths[t.Month()], t.Hour(), t.Minute())
}
