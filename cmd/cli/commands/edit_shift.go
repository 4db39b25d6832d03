package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/services"
)

// EditShiftCmd creates the editShift command
func EditShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "editShift <id> <date YYYY-MM-DD> <start HH:MM> <end HH:MM>",
		Short: "Move a shift to a new date or time",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := model.ShiftPatch{Date: args[1], StartTime: args[2], EndTime: args[3]}

			if err := services.EditShift(app.Ctx, app.Repo, app.Session, app.Logger, args[0], patch); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Shift %s moved to %s %s-%s\n", args[0], patch.Date, patch.StartTime, patch.EndTime)
			return nil
		},
	}
}

// DeleteShiftCmd creates the deleteShift command
func DeleteShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteShift <id>",
		Short: "Delete a single shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.DeleteShift(app.Ctx, app.Repo, app.Session, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Shift %s deleted\n", args[0])
			return nil
		},
	}
}
