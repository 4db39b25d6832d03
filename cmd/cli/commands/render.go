package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/overlap"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
)

const (
	timeColWidth = 6
	dayColWidth  = 14
)

var (
	headerColor   = color.New(color.Bold)
	occupiedColor = color.New(color.FgGreen)
	conflictColor = color.New(color.FgRed, color.Bold)
	dimColor      = color.New(color.Faint)
)

// renderGrid prints the week as a table with one column per day.
// Contended cells are shown in red with a "!" marker.
func renderGrid(w io.Writer, grid weekview.Grid) {
	fmt.Fprintf(w, "\nWeek of %s\n\n", grid.Anchor.Format("Mon 02 Jan 2006"))

	header := pad("", timeColWidth)
	for _, day := range grid.Days {
		header += " " + headerColor.Sprint(pad(day.Format("Mon 02/01"), dayColWidth))
	}
	fmt.Fprintln(w, header)

	for row, hour := range grid.Hours {
		line := dimColor.Sprint(pad(overlap.SlotLabel(hour), timeColWidth))
		for day := range grid.Days {
			line += " " + renderCell(grid.Cells[day][row])
		}
		fmt.Fprintln(w, line)
	}

	conflicts := grid.Conflicts()
	if len(conflicts) == 0 {
		fmt.Fprintln(w, "\nNo conflicts this week")
		return
	}

	fmt.Fprintf(w, "\n%s\n", conflictColor.Sprintf("%d conflicting slot(s):", len(conflicts)))
	for _, c := range conflicts {
		fmt.Fprintf(w, "  %s %s  %s\n", c.Date, overlap.SlotLabel(c.Hour), describeShifts(c.Shifts))
	}
}

func renderCell(cell weekview.Cell) string {
	if len(cell.Shifts) == 0 {
		return dimColor.Sprint(pad("·", dayColWidth))
	}

	names := make([]string, len(cell.Shifts))
	for i, s := range cell.Shifts {
		names[i] = s.VolunteerName
	}
	text := strings.Join(names, ",")

	if cell.IsOverlap {
		return conflictColor.Sprint(pad("!"+text, dayColWidth))
	}
	return occupiedColor.Sprint(pad(text, dayColWidth))
}

// describeShifts lists shifts as "NAME HH:MM-HH:MM" joined by commas
func describeShifts(shifts []model.Shift) string {
	parts := make([]string, len(shifts))
	for i, s := range shifts {
		parts[i] = fmt.Sprintf("%s %s-%s", s.VolunteerName, s.StartTime, s.EndTime)
	}
	return strings.Join(parts, ", ")
}

// pad truncates or right-pads s to exactly width runes
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
