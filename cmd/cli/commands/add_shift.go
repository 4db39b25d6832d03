package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/recurrence"
	"github.com/jakechorley/point-rota/pkg/core/services"
)

// AddShiftCmd creates the addShift command
func AddShiftCmd(app *AppContext) *cobra.Command {
	var modeFlag, dateFlag, fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "addShift <name> <start HH:MM> <end HH:MM>",
		Short: "Schedule shifts for a volunteer on one day, a whole week or a date range",
		Long: `Schedule shifts for a volunteer.

Modes:
  single        one shift on --date (defaults to today)
  current-week  Monday to Sunday of this week
  next-week     Monday to Sunday of next week
  range         every day from --from to --to inclusive

Times must be on the half hour between 07:00 and 20:00.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := recurrence.ParseMode(modeFlag)
			if err != nil {
				return &model.ValidationError{Reason: err.Error()}
			}

			req := recurrence.Request{Mode: mode}
			switch mode {
			case recurrence.ModeSingle:
				req.Date = app.today()
				if dateFlag != "" {
					if req.Date, err = services.ParseDateInput("date", dateFlag); err != nil {
						return err
					}
				}
			case recurrence.ModeRange:
				if fromFlag == "" || toFlag == "" {
					return &model.ValidationError{Reason: "range mode needs both --from and --to"}
				}
				if req.StartDate, err = services.ParseDateInput("from", fromFlag); err != nil {
					return err
				}
				if req.EndDate, err = services.ParseDateInput("to", toFlag); err != nil {
					return err
				}
			}

			app.Logger.Debug("addShift command",
				zap.String("name", args[0]),
				zap.String("mode", string(mode)))

			result, err := services.ScheduleShifts(app.Ctx, app.Repo, app.Session, app.Logger, services.ScheduleRequest{
				VolunteerName: args[0],
				Recurrence:    req,
				StartTime:     args[1],
				EndTime:       args[2],
			}, app.today())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Batch.Created) > 0 {
				fmt.Fprintf(out, "✅ Scheduled %d shift(s) for %s, %s-%s\n",
					len(result.Batch.Created), result.Batch.Created[0].VolunteerName, args[1], args[2])
				for _, s := range result.Batch.Created {
					fmt.Fprintf(out, "   %s  %s\n", s.Date, s.ID)
				}
			}
			for _, f := range result.Batch.Failures {
				fmt.Fprintf(out, "⚠️  %s was not saved: %v\n", f.Shift.Date, f.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(recurrence.ModeSingle), "single, current-week, next-week or range")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Date for single mode (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&fromFlag, "from", "", "First date for range mode (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Last date for range mode (YYYY-MM-DD)")

	return cmd
}
