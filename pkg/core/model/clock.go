package model

import (
	"fmt"
	"time"
)

// Bookable window of the point. Shifts start and end on the half hour.
const (
	OpeningMinute   = 7 * 60
	ClosingMinute   = 20 * 60
	SlotGranularity = 30
)

// ClockMinutes converts an HH:MM string into minutes since midnight
func ClockMinutes(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as HH:MM
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsBookable reports whether minutes lies on the half-hour grid inside opening hours
func IsBookable(minutes int) bool {
	return minutes >= OpeningMinute && minutes <= ClosingMinute && minutes%SlotGranularity == 0
}

// BookableTimes lists every HH:MM value a shift may start or end at, in order
func BookableTimes() []string {
	times := make([]string, 0, (ClosingMinute-OpeningMinute)/SlotGranularity+1)
	for m := OpeningMinute; m <= ClosingMinute; m += SlotGranularity {
		times = append(times, FormatClock(m))
	}
	return times
}
