// Package calendar exports shifts as an iCalendar feed
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/jakechorley/point-rota/pkg/core/model"
)

// Options controls how shifts are rendered as events
type Options struct {
	// PointName is used for the calendar name and each event's location
	PointName string
	// Location is the timezone shift dates and times are expressed in
	Location *time.Location
	// Now stamps every event; zero means time.Now()
	Now time.Time
}

// Export renders shifts as a VCALENDAR with one VEVENT per shift, keyed by shift id.
// Shifts whose date or times do not parse are left out and counted in skipped.
func Export(shifts []model.Shift, opts Options) (feed string, skipped int) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//point-rota//shifts//EN")
	if opts.PointName != "" {
		cal.SetName(opts.PointName + " shifts")
	}
	cal.SetXWRTimezone(loc.String())

	for _, s := range shifts {
		start, end, err := shiftTimes(s, loc)
		if err != nil {
			skipped++
			continue
		}

		event := cal.AddEvent(s.ID + "@point-rota")
		event.SetDtStampTime(now.UTC())
		event.SetStartAt(start.UTC())
		event.SetEndAt(end.UTC())
		event.SetSummary(s.VolunteerName)
		if opts.PointName != "" {
			event.SetLocation(opts.PointName)
		}
		if !s.UpdatedAt.IsZero() {
			event.SetModifiedAt(s.UpdatedAt.UTC())
		}
	}

	return cal.Serialize(), skipped
}

// shiftTimes resolves a shift's wall-clock start and end in loc
func shiftTimes(s model.Shift, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(model.DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", s.Date, err)
	}
	startMin, err := model.ClockMinutes(s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := model.ClockMinutes(s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	at := func(minutes int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc)
	}
	return at(startMin), at(endMin), nil
}
