package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Mode selects how a scheduling request is turned into dates
type Mode string

const (
	ModeSingle      Mode = "single"
	ModeCurrentWeek Mode = "current_week"
	ModeNextWeek    Mode = "next_week"
	ModeRange       Mode = "range"
)

// ParseMode parses a mode name, accepting dashes in place of underscores
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch mode {
	case ModeSingle, ModeCurrentWeek, ModeNextWeek, ModeRange:
		return mode, nil
	}
	return "", fmt.Errorf("unknown recurrence mode %q (expected single, current_week, next_week or range)", s)
}

// Request holds the date inputs of one form submission.
// Date is used by single mode, StartDate and EndDate by range mode.
type Request struct {
	Mode      Mode
	Date      time.Time
	StartDate time.Time
	EndDate   time.Time
}

// Expand turns a request into ascending, distinct calendar dates (UTC midnight).
// A range whose end precedes its start yields an empty list.
func Expand(req Request, today time.Time) ([]time.Time, error) {
	var dates []time.Time

	switch req.Mode {
	case ModeSingle:
		if req.Date.IsZero() {
			return nil, fmt.Errorf("single mode requires a date")
		}
		dates = []time.Time{Day(req.Date)}

	case ModeCurrentWeek, ModeNextWeek:
		monday := WeekStart(today)
		if req.Mode == ModeNextWeek {
			monday = monday.AddDate(0, 0, 7)
		}
		week, err := daily(monday, rrule.ROption{Count: 7})
		if err != nil {
			return nil, err
		}
		dates = week

	case ModeRange:
		if req.StartDate.IsZero() || req.EndDate.IsZero() {
			return nil, fmt.Errorf("range mode requires a start and an end date")
		}
		start, end := Day(req.StartDate), Day(req.EndDate)
		if end.Before(start) {
			return []time.Time{}, nil
		}
		span, err := daily(start, rrule.ROption{Until: end})
		if err != nil {
			return nil, err
		}
		dates = span

	default:
		return nil, fmt.Errorf("unknown recurrence mode %q", req.Mode)
	}

	return distinctAscending(dates), nil
}

// WeekStart returns the Monday of the ISO week containing ref.
// Sunday counts as day 7, so it maps back to the previous Monday.
func WeekStart(ref time.Time) time.Time {
	day := Day(ref)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daily walks FREQ=DAILY from start, bounded by opt.Count or opt.Until
func daily(start time.Time, opt rrule.ROption) ([]time.Time, error) {
	opt.Freq = rrule.DAILY
	opt.Dtstart = start
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily rule: %w", err)
	}
	return rule.All(), nil
}

func distinctAscending(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = Day(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
