package overlap

import (
	"fmt"

	"github.com/jakechorley/point-rota/pkg/core/model"
)

// Occupancy is the set of shifts covering one hour slot
type Occupancy struct {
	Shifts []model.Shift
	// IsOverlap is true when more than one shift covers the slot
	IsOverlap bool
}

// ShiftsIn returns the shifts on date that intersect the slot [hour:00, hour+1:00).
// The test is half-open: a shift ending at hour:00 or starting at hour+1:00 does not count.
// Shifts with unparseable times are skipped; the result is never nil.
func ShiftsIn(date string, hour int, shifts []model.Shift) []model.Shift {
	slotStart := hour * 60
	slotEnd := slotStart + 60

	out := make([]model.Shift, 0)
	for _, s := range shifts {
		if s.Date != date {
			continue
		}
		start, err := model.ClockMinutes(s.StartTime)
		if err != nil {
			continue
		}
		end, err := model.ClockMinutes(s.EndTime)
		if err != nil {
			continue
		}
		if start < slotEnd && end > slotStart {
			out = append(out, s)
		}
	}
	return out
}

// Detect classifies the slot as free, singly covered or contended
func Detect(date string, hour int, shifts []model.Shift) Occupancy {
	covering := ShiftsIn(date, hour, shifts)
	return Occupancy{
		Shifts:    covering,
		IsOverlap: len(covering) > 1,
	}
}

// SlotLabel renders the start of an hour slot as HH:00
func SlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
