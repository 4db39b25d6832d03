package sheetsclient

import (
	"context"
	"fmt"
	"strings"
)

// rosterNameColumn is the header of the column holding volunteer names
const rosterNameColumn = "Name"

// ListRosterNames reads the static roster from the "Name" column of a tab
func (c *Client) ListRosterNames(ctx context.Context, spreadsheetID, tab string) ([]string, error) {
	values, err := c.GetValues(ctx, spreadsheetID, quoteTab(tab))
	if err != nil {
		return nil, fmt.Errorf("failed to get roster data: %w", err)
	}

	names, err := parseRosterNames(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return names, nil
}

// parseRosterNames returns the non-blank cells below the "Name" header
func parseRosterNames(raw [][]interface{}) ([]string, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	col := findColumnIndex(raw[0], rosterNameColumn)
	if col == -1 {
		return nil, fmt.Errorf("missing required field in header: %s", rosterNameColumn)
	}

	names := make([]string, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if col >= len(row) {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(row[col]))
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// findColumnIndex finds a header cell by case-insensitive name, or returns -1
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if cellStr, ok := cell.(string); ok && strings.EqualFold(strings.TrimSpace(cellStr), columnName) {
			return i
		}
	}
	return -1
}
