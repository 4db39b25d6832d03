package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/point-rota/pkg/core/overlap"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
)

const conflictMarker = "CONFLICT: "

// PublishWeek writes a week grid to its own tab, creating the tab on first publish
// and overwriting it afterwards. It returns the tab title.
func (c *Client) PublishWeek(ctx context.Context, spreadsheetID string, grid weekview.Grid) (string, error) {
	tabTitle := weekTabTitle(grid)

	exists, err := c.HasSheet(ctx, spreadsheetID, tabTitle)
	if err != nil {
		return "", err
	}
	if !exists {
		if _, err := c.CreateSheet(ctx, spreadsheetID, tabTitle); err != nil {
			return "", fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.ReplaceValues(ctx, spreadsheetID, tabTitle, buildWeekValues(grid)); err != nil {
		return "", fmt.Errorf("failed to publish week: %w", err)
	}
	return tabTitle, nil
}

// weekTabTitle creates a tab title in the format "Week of Mon May 20 2024"
func weekTabTitle(grid weekview.Grid) string {
	return "Week of " + grid.Anchor.Format("Mon Jan 02 2006")
}

// buildWeekValues lays the grid out with one column per day and one row per hour.
// Each cell lists the covering volunteers; contended cells are prefixed with a marker.
func buildWeekValues(grid weekview.Grid) [][]interface{} {
	header := []interface{}{"Time"}
	for _, day := range grid.Days {
		header = append(header, day.Format("Mon 02 Jan"))
	}

	rows := [][]interface{}{header}
	for row, hour := range grid.Hours {
		sheetRow := []interface{}{overlap.SlotLabel(hour)}
		for day := range grid.Days {
			cell := grid.Cells[day][row]
			names := make([]string, len(cell.Shifts))
			for i, s := range cell.Shifts {
				names[i] = s.VolunteerName
			}
			value := strings.Join(names, ", ")
			if cell.IsOverlap {
				value = conflictMarker + value
			}
			sheetRow = append(sheetRow, value)
		}
		rows = append(rows, sheetRow)
	}
	return rows
}
