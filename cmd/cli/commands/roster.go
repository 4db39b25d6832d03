package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/point-rota/pkg/core/services"
)

// RosterCmd creates the roster command
func RosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List known volunteer names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := services.ListRoster(app.Ctx, app.Database, app.StaticRoster, app.Repo.Snapshot(), app.Logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d known volunteers:\n\n", len(names))
			for _, name := range names {
				fmt.Fprintf(out, "- %s\n", name)
			}
			return nil
		},
	}
}
