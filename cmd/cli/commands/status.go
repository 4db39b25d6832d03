package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/services"
)

// StatusCmd creates the status command
func StatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [toggle | note <text>]",
		Short: "Show whether the point is open, toggle it, or set the status note",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				printStatus(out, app)
				return nil
			}

			switch args[0] {
			case "toggle":
				if len(args) != 1 {
					return fmt.Errorf("toggle takes no arguments")
				}
				status, err := services.ToggleStatus(app.Ctx, app.Database, app.Session, app.Logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Point is now %s\n", openLabel(status.IsOpen))
				return nil

			case "note":
				note := strings.TrimSpace(strings.Join(args[1:], " "))
				if err := services.SetStatusNote(app.Ctx, app.Database, app.Session, app.Logger, note); err != nil {
					return err
				}
				if note == "" {
					fmt.Fprintln(out, "✅ Status note cleared")
				} else {
					fmt.Fprintf(out, "✅ Status note set: %s\n", note)
				}
				return nil
			}

			return fmt.Errorf("unknown status action %q (expected toggle or note)", args[0])
		},
	}
}

// printStatus writes a one-line summary of the point status
func printStatus(w io.Writer, app *AppContext) {
	status, err := app.Database.GetStatus(app.Ctx)
	if err != nil {
		app.Logger.Error("Failed to fetch point status", zap.Error(err))
		fmt.Fprintf(w, "%s: status unavailable\n", app.Cfg.PointName)
		return
	}

	line := fmt.Sprintf("%s is %s", app.Cfg.PointName, openLabel(status.IsOpen))
	if status.Note != "" {
		line += " · " + status.Note
	}
	if !status.UpdatedAt.IsZero() {
		line += fmt.Sprintf(" (updated %s)", status.UpdatedAt.In(app.Cfg.Location()).Format("Mon 02 Jan 15:04"))
	}
	fmt.Fprintln(w, line)
}

func openLabel(isOpen bool) string {
	if isOpen {
		return occupiedColor.Sprint("OPEN")
	}
	return conflictColor.Sprint("CLOSED")
}
