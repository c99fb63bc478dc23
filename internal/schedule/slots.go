// Package schedule reconciles a patient's fuzzy time preference with the
// calendar's real availability, producing up to three concrete,
// collision-free candidate slots.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/calendar"
	"github.com/Robinhohocepied/mediflow/internal/frtime"
)

// MaxOffers is the number of slots one offer aims for.
const MaxOffers = 3

// Options tunes the reconciliation scan.
type Options struct {
	// Duration is the appointment length checked against the oracle.
	Duration time.Duration
	// SearchDays is the preference-driven scan window in calendar days.
	SearchDays int
	// FallbackHour is the hour probed on subsequent business days when
	// the preference scan comes up short.
	FallbackHour int
	// FallbackBoundDays caps the fallback scan so a fully booked
	// calendar terminates with a partial (possibly empty) offer.
	FallbackBoundDays int

	// Clinic business hours. Band candidate hours derive from these:
	// morning probes every open morning hour, afternoon the first three
	// afternoon hours, evening the closing hour and its neighbors.
	MorningOpenHour    int
	MorningCloseHour   int
	AfternoonOpenHour  int
	AfternoonCloseHour int
}

// DefaultOptions match the clinic defaults: 30-minute visits, a 10-day
// preference window, 10:00 fallback bounded at 90 days, Mon-Fri
// 09:00-12:00 / 14:00-18:00 hours.
func DefaultOptions() Options {
	return Options{
		Duration:           30 * time.Minute,
		SearchDays:         10,
		FallbackHour:       10,
		FallbackBoundDays:  90,
		MorningOpenHour:    9,
		MorningCloseHour:   12,
		AfternoonOpenHour:  14,
		AfternoonCloseHour: 18,
	}
}

// bandHours maps a time-of-day band to candidate hours in probe order.
// With default hours this yields morning {9,10,11}, afternoon
// {14,15,16}, evening {18,19,17} and unspecified {9,14,18}.
func (o Options) bandHours(band frtime.Band) []int {
	switch band {
	case frtime.BandMorning:
		var hours []int
		for h := o.MorningOpenHour; h < o.MorningCloseHour; h++ {
			hours = append(hours, h)
		}
		return hours
	case frtime.BandAfternoon:
		end := o.AfternoonOpenHour + 3
		if end > o.AfternoonCloseHour {
			end = o.AfternoonCloseHour
		}
		var hours []int
		for h := o.AfternoonOpenHour; h < end; h++ {
			hours = append(hours, h)
		}
		return hours
	case frtime.BandEvening:
		return []int{o.AfternoonCloseHour, o.AfternoonCloseHour + 1, o.AfternoonCloseHour - 1}
	}
	return []int{o.MorningOpenHour, o.AfternoonOpenHour, o.AfternoonCloseHour}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// OfferSlots returns up to MaxOffers free slots honoring the preferred
// day and band, in strictly ascending order with no duplicates.
//
// The scan starts on the preferred day and walks forward day by day,
// skipping weekends, probing the band's candidate hours against the
// oracle. If the window is exhausted short of MaxOffers, subsequent
// business days are probed at FallbackHour until the bound is hit. A nil
// oracle degrades to the next MaxOffers business days at FallbackHour
// without any availability check. Oracle errors are treated as "busy" so
// one flaky lookup cannot abort the whole offer.
func OfferSlots(ctx context.Context, oracle calendar.Oracle, preferred time.Time, band frtime.Band, opts Options) []time.Time {
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Minute
	}
	if opts.SearchDays <= 0 {
		opts.SearchDays = 10
	}
	if opts.FallbackHour <= 0 {
		opts.FallbackHour = 10
	}
	if opts.FallbackBoundDays <= 0 {
		opts.FallbackBoundDays = 90
	}
	if opts.MorningOpenHour <= 0 {
		opts.MorningOpenHour = 9
	}
	if opts.MorningCloseHour <= opts.MorningOpenHour {
		opts.MorningCloseHour = opts.MorningOpenHour + 3
	}
	if opts.AfternoonOpenHour <= 0 {
		opts.AfternoonOpenHour = 14
	}
	if opts.AfternoonCloseHour <= opts.AfternoonOpenHour {
		opts.AfternoonCloseHour = opts.AfternoonOpenHour + 4
	}

	day := truncateToDay(preferred)

	if oracle == nil {
		return unverifiedFallback(day, opts)
	}

	seen := make(map[int64]bool)
	var out []time.Time

	hours := opts.bandHours(band)
scan:
	for d := 0; d < opts.SearchDays; d++ {
		cur := day.AddDate(0, 0, d)
		if isWeekend(cur) {
			continue
		}
		for _, h := range hours {
			candidate := atHour(cur, h)
			if free, err := oracle.IsAvailable(ctx, candidate, opts.Duration); err != nil || !free {
				continue
			}
			if !seen[candidate.Unix()] {
				seen[candidate.Unix()] = true
				out = append(out, candidate)
			}
			if len(out) >= MaxOffers {
				break scan
			}
		}
	}

	for d := 1; d <= opts.FallbackBoundDays && len(out) < MaxOffers; d++ {
		cur := day.AddDate(0, 0, d)
		if isWeekend(cur) {
			continue
		}
		candidate := atHour(cur, opts.FallbackHour)
		if seen[candidate.Unix()] {
			continue
		}
		if free, err := oracle.IsAvailable(ctx, candidate, opts.Duration); err != nil || !free {
			continue
		}
		seen[candidate.Unix()] = true
		out = append(out, candidate)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// unverifiedFallback offers the next MaxOffers business days at the
// fallback hour when no oracle is configured.
func unverifiedFallback(day time.Time, opts Options) []time.Time {
	var out []time.Time
	cur := day
	for len(out) < MaxOffers {
		cur = cur.AddDate(0, 0, 1)
		if isWeekend(cur) {
			continue
		}
		out = append(out, atHour(cur, opts.FallbackHour))
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
