package weekview

import (
	"time"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/overlap"
	"github.com/jakechorley/point-rota/pkg/core/recurrence"
)

// Grid dimensions: 7 days by 13 hourly rows, 07:00 to the last bookable hour 19:00-20:00
const (
	DaysPerWeek = 7
	FirstHour   = model.OpeningMinute / 60
	LastHour    = model.ClosingMinute/60 - 1
	HourRows    = LastHour - FirstHour + 1
)

// Cell is the occupancy of one hour on one day
type Cell struct {
	Date      string
	Hour      int
	Shifts    []model.Shift
	IsOverlap bool
}

// Grid is the week view consumed by renderers
type Grid struct {
	Anchor time.Time
	Days   []time.Time
	Hours  []int
	// Cells is indexed [day][row], row 0 being FirstHour
	Cells [DaysPerWeek][HourRows]Cell
}

// BuildGrid derives the week starting at anchorMonday from a shift snapshot
func BuildGrid(anchorMonday time.Time, shifts []model.Shift) Grid {
	anchor := recurrence.Day(anchorMonday)
	grid := Grid{
		Anchor: anchor,
		Days:   make([]time.Time, DaysPerWeek),
		Hours:  make([]int, HourRows),
	}

	for row := 0; row < HourRows; row++ {
		grid.Hours[row] = FirstHour + row
	}

	for day := 0; day < DaysPerWeek; day++ {
		date := anchor.AddDate(0, 0, day)
		grid.Days[day] = date
		dateStr := model.FormatDate(date)

		for row, hour := range grid.Hours {
			occ := overlap.Detect(dateStr, hour, shifts)
			grid.Cells[day][row] = Cell{
				Date:      dateStr,
				Hour:      hour,
				Shifts:    occ.Shifts,
				IsOverlap: occ.IsOverlap,
			}
		}
	}

	return grid
}

// Conflicts lists the contended cells in day then hour order
func (g Grid) Conflicts() []Cell {
	var out []Cell
	for day := range g.Cells {
		for row := range g.Cells[day] {
			if g.Cells[day][row].IsOverlap {
				out = append(out, g.Cells[day][row])
			}
		}
	}
	return out
}

// Advance moves the anchor by whole weeks, backwards for negative deltas
func Advance(anchorMonday time.Time, deltaWeeks int) time.Time {
	return anchorMonday.AddDate(0, 0, 7*deltaWeeks)
}

// CurrentAnchor returns the Monday of the week containing now
func CurrentAnchor(now time.Time) time.Time {
	return recurrence.WeekStart(now)
}
