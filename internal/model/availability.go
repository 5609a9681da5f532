package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AvailabilityWindow is a weekly recurring availability interval
// [StartTime, EndTime) on a given day of week (0=Sunday .. 6=Saturday).
// Multiple windows may exist per day.
type AvailabilityWindow struct {
	ID        int64  `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"` // "09:00"
	EndTime   string `json:"end_time"`   // "17:00"
}

// Validate checks day range and start < end.
func (w AvailabilityWindow) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0..6", w.DayOfWeek)
	}
	start, err := ClockToMinutes(w.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ClockToMinutes(w.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", w.StartTime, w.EndTime)
	}
	return nil
}

// BlockedDate marks a calendar date that offers no slots at all.
type BlockedDate struct {
	Date string `json:"date"` // "2006-01-02"
	Note string `json:"note,omitempty"`
}

// ClockToMinutes converts "HH:MM" (or "HH:MM:SS") to minutes since midnight.
func ClockToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %s", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", clock, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", clock)
	}
	return hour*60 + minute, nil
}

// MinutesToClock converts minutes since midnight to "HH:MM".
func MinutesToClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// NormalizeClock reduces "HH:MM:SS" to "HH:MM" and zero-pads components.
// The ledger may store seconds; slot arithmetic works on minutes only.
func NormalizeClock(clock string) string {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return clock
	}
	h := parts[0]
	m := parts[1]
	if len(h) == 1 {
		h = "0" + h
	}
	if len(m) == 1 {
		m = "0" + m
	}
	return h + ":" + m
}
