package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/calendar"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/services"
)

// ExportIcsCmd creates the exportIcs command
func ExportIcsCmd(app *AppContext) *cobra.Command {
	var output, from, to, volunteer string

	cmd := &cobra.Command{
		Use:   "exportIcs",
		Short: "Export shifts as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shifts := app.Repo.Snapshot()

			if from != "" {
				if _, err := services.ParseDateInput("from", from); err != nil {
					return err
				}
			}
			if to != "" {
				if _, err := services.ParseDateInput("to", to); err != nil {
					return err
				}
			}

			selected := filterShifts(shifts, from, to, volunteer)

			feed, skipped := calendar.Export(selected, calendar.Options{
				PointName: app.Cfg.PointName,
				Location:  app.Cfg.Location(),
			})
			if skipped > 0 {
				app.Logger.Warn("Skipped malformed shifts in export", zap.Int("skipped", skipped))
			}

			if output == "" || output == "-" {
				fmt.Fprint(cmd.OutOrStdout(), feed)
				return nil
			}

			if err := os.WriteFile(output, []byte(feed), 0644); err != nil {
				return fmt.Errorf("failed to write calendar file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d shift(s) to %s\n", len(selected)-skipped, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "O", "", "File to write (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "Only shifts on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Only shifts on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&volunteer, "volunteer", "", "Only shifts of this volunteer")

	return cmd
}

// filterShifts keeps shifts inside the inclusive date bounds and, if set, of one volunteer.
// Dates compare as strings since they are all YYYY-MM-DD.
func filterShifts(shifts []model.Shift, from, to, volunteer string) []model.Shift {
	slug := ""
	if volunteer != "" {
		slug = model.Slug(volunteer)
	}

	out := make([]model.Shift, 0, len(shifts))
	for _, s := range shifts {
		if from != "" && s.Date < from {
			continue
		}
		if to != "" && s.Date > to {
			continue
		}
		if slug != "" && model.Slug(s.VolunteerName) != slug {
			continue
		}
		out = append(out, s)
	}
	return out
}
