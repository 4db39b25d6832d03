package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/services"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
	"github.com/jakechorley/point-rota/pkg/db"
)

const clearScreen = "\033[H\033[2J"

// WatchCmd creates the watch command
func WatchCmd(app *AppContext) *cobra.Command {
	var offset int
	var metricsAddr string
	var noClear bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the week grid on screen, redrawing whenever anyone changes a shift or the status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				shutdown := serveMetrics(app, metricsAddr)
				defer shutdown()
			}

			out := cmd.OutOrStdout()
			w := &weekWatcher{app: app, out: out, offset: offset, clear: !noClear}

			unsubscribe := app.Repo.Subscribe(w.onShifts)
			defer unsubscribe()

			statusChanges, err := app.Database.Watch(ctx, db.CollectionStatus)
			if err != nil {
				return fmt.Errorf("failed to watch status: %w", err)
			}

			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "\n👋 Stopped watching")
					return nil
				case _, ok := <-statusChanges:
					if !ok {
						return nil
					}
					w.redraw()
				}
			}
		},
	}

	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Weeks from the current week")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Append each redraw instead of clearing the screen")

	return cmd
}

// weekWatcher redraws the grid from the latest snapshot; redraws are serialized
type weekWatcher struct {
	app    *AppContext
	out    io.Writer
	offset int
	clear  bool

	mu     sync.Mutex
	shifts []model.Shift
}

func (w *weekWatcher) onShifts(shifts []model.Shift) {
	w.mu.Lock()
	w.shifts = shifts
	w.mu.Unlock()
	w.redraw()
}

func (w *weekWatcher) redraw() {
	w.mu.Lock()
	defer w.mu.Unlock()

	anchor := weekview.Advance(weekview.CurrentAnchor(w.app.today()), w.offset)
	grid := services.ViewWeek(w.shifts, anchor, w.app.Metrics)

	if w.clear {
		fmt.Fprint(w.out, clearScreen)
	}
	printStatus(w.out, w.app)
	renderGrid(w.out, grid)
	fmt.Fprintf(w.out, "\nUpdated %s, Ctrl-C to stop\n", time.Now().Format("15:04:05"))
}

// serveMetrics exposes the metrics handler until the returned shutdown is called
func serveMetrics(app *AppContext, addr string) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		app.Logger.Info("Serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
}
