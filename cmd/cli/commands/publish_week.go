package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/services"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
)

// PublishWeekCmd creates the publishWeek command
func PublishWeekCmd(app *AppContext) *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "publishWeek",
		Short: "Publish the week grid to a tab of the roster spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.SheetsClient == nil || app.Cfg.Roster.Sheet == nil {
				return fmt.Errorf("no roster sheet configured (set roster.sheet in the config file)")
			}

			anchor := weekview.Advance(weekview.CurrentAnchor(app.today()), offset)
			grid := services.ViewWeek(app.Repo.Snapshot(), anchor, app.Metrics)

			tab, err := app.SheetsClient.PublishWeek(app.Ctx, app.Cfg.Roster.Sheet.SheetID, grid)
			if err != nil {
				return err
			}

			app.Logger.Info("Week published", zap.String("tab", tab), zap.Int("conflicts", len(grid.Conflicts())))
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Published to tab %q\n", tab)
			return nil
		},
	}

	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Weeks from the current week")

	return cmd
}
