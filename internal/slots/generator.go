// Package slots computes offerable appointment start times from weekly
// availability windows, blocked dates, the slot granularity and the set of
// already-booked times. Generation is pure: all inputs are passed in, storage
// access is the caller's job.
package slots

import (
	"sort"
	"time"

	"nursecare/internal/model"
)

// DefaultInterval is the slot granularity used when no configured value is
// available.
const DefaultInterval = 30

// RequiredSlots returns how many contiguous granularity units a booking of
// the given total duration occupies. Never less than 1.
func RequiredSlots(durationMins, intervalMins int) int {
	if intervalMins <= 0 {
		intervalMins = DefaultInterval
	}
	if durationMins < intervalMins {
		durationMins = intervalMins
	}
	n := (durationMins + intervalMins - 1) / intervalMins
	if n < 1 {
		n = 1
	}
	return n
}

// Generate returns the ordered list of feasible "HH:MM" start times for date.
//
// A start time is feasible when the full span of requiredSlots contiguous
// granularity units fits inside one availability window for the date's day
// of week, and none of those granularity timestamps appears in bookedTimes.
// A date present in blockedDates yields no slots regardless of windows.
// An empty result is a normal outcome, not an error.
//
// Each entry of bookedTimes is treated as occupying exactly one granularity
// unit, whatever the duration of the booking behind it. A longer existing
// booking can therefore have an unguarded tail; see DESIGN.md.
func Generate(
	date time.Time,
	requiredDurationMins int,
	windows []model.AvailabilityWindow,
	blockedDates map[string]struct{},
	bookedTimes map[string]struct{},
	intervalMins int,
) []string {
	if intervalMins <= 0 {
		intervalMins = DefaultInterval
	}

	if _, blocked := blockedDates[date.Format("2006-01-02")]; blocked {
		return nil
	}

	dow := int(date.Weekday())
	required := RequiredSlots(requiredDurationMins, intervalMins)

	var candidates []int
	for _, w := range windows {
		if w.DayOfWeek != dow {
			continue
		}
		start, err := model.ClockToMinutes(model.NormalizeClock(w.StartTime))
		if err != nil {
			continue
		}
		end, err := model.ClockToMinutes(model.NormalizeClock(w.EndTime))
		if err != nil {
			continue
		}
		for cur := start; cur+required*intervalMins <= end; cur += intervalMins {
			candidates = append(candidates, cur)
		}
	}

	seen := make(map[int]struct{}, len(candidates))
	var feasible []int
	for _, start := range candidates {
		if _, dup := seen[start]; dup {
			continue
		}
		seen[start] = struct{}{}

		free := true
		for i := 0; i < required; i++ {
			if _, taken := bookedTimes[model.MinutesToClock(start+i*intervalMins)]; taken {
				free = false
				break
			}
		}
		if free {
			feasible = append(feasible, start)
		}
	}

	sort.Ints(feasible)
	out := make([]string, 0, len(feasible))
	for _, m := range feasible {
		out = append(out, model.MinutesToClock(m))
	}
	return out
}
