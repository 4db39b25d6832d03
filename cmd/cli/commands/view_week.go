package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/services"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
)

// ViewWeekCmd creates the viewWeek command
func ViewWeekCmd(app *AppContext) *cobra.Command {
	var offset int
	var list bool

	cmd := &cobra.Command{
		Use:   "viewWeek",
		Short: "Show the week grid with conflicting slots highlighted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := weekview.Advance(weekview.CurrentAnchor(app.today()), offset)
			grid := services.ViewWeek(app.Repo.Snapshot(), anchor, app.Metrics)

			out := cmd.OutOrStdout()
			renderGrid(out, grid)
			if list {
				listWeekShifts(out, grid)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Weeks from the current week (negative for past weeks)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "Also list the week's shifts with their ids")

	return cmd
}

// listWeekShifts prints each shift of the grid's week once, in date and time order
func listWeekShifts(w io.Writer, grid weekview.Grid) {
	seen := make(map[string]bool)
	var shifts []model.Shift
	for day := range grid.Cells {
		for row := range grid.Cells[day] {
			for _, s := range grid.Cells[day][row].Shifts {
				if !seen[s.ID] {
					seen[s.ID] = true
					shifts = append(shifts, s)
				}
			}
		}
	}

	if len(shifts) == 0 {
		fmt.Fprintln(w, "\nNo shifts this week")
		return
	}

	fmt.Fprintf(w, "\nShifts this week:\n")
	for _, s := range shifts {
		fmt.Fprintf(w, "  %s  %s-%s  %-20s %s\n", s.Date, s.StartTime, s.EndTime, s.VolunteerName, s.ID)
	}
}
