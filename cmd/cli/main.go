package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/cmd/cli/commands"
	"github.com/jakechorley/point-rota/internal/config"
	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/clients/sheetsclient"
	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/repository"
	"github.com/jakechorley/point-rota/pkg/db"
	"github.com/jakechorley/point-rota/pkg/metrics"
	"github.com/jakechorley/point-rota/pkg/postgres"
	"github.com/jakechorley/point-rota/pkg/sqlite"
	"github.com/jakechorley/point-rota/pkg/utils/logging"
)

var (
	env     string
	logsDir string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "point-rota",
		Short: "Point rota CLI - schedule volunteer shifts and spot clashes",
		Long: `A CLI for scheduling volunteer shifts at a single point, viewing the week with
overlapping shifts highlighted, and toggling whether the point is open.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownApp()
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", "logs", "Directory for JSON log files (empty to disable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")

	// Add all commands
	rootCmd.AddCommand(commands.AddShiftCmd(app))
	rootCmd.AddCommand(commands.EditShiftCmd(app))
	rootCmd.AddCommand(commands.DeleteShiftCmd(app))
	rootCmd.AddCommand(commands.ViewWeekCmd(app))
	rootCmd.AddCommand(commands.WatchCmd(app))
	rootCmd.AddCommand(commands.RosterCmd(app))
	rootCmd.AddCommand(commands.StatusCmd(app))
	rootCmd.AddCommand(commands.ExportIcsCmd(app))
	rootCmd.AddCommand(commands.PublishWeekCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		shutdownApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, session, roster and the shift repository
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Out = os.Stdout

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, logging.Options{Dir: logsDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("app_id", app.Cfg.AppID),
		zap.String("driver", app.Cfg.Store.Driver))

	// Connect to the shared store
	app.Database, err = openDatabase(app.Ctx, app.Cfg, app.Logger)
	if err != nil {
		return err
	}

	// Sign in
	tokenPath, err := auth.TokenPath(env)
	if err != nil {
		return err
	}
	provider := auth.NewAnonymousProvider(app.Cfg.Session.Secret, app.Cfg.AppID, app.Cfg.Session.TTL, tokenPath, app.Logger)
	app.Session, err = provider.SignIn(app.Ctx)
	if err != nil {
		// Reads still work without a session; writes are refused
		app.Logger.Warn("Sign-in failed, continuing read-only", zap.Error(err))
	}

	// Static roster
	app.StaticRoster = append([]string{}, app.Cfg.Roster.Names...)
	if sheet := app.Cfg.Roster.Sheet; sheet != nil {
		app.SheetsClient, err = sheetsclient.NewClient(app.Ctx, sheet.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}

		names, err := app.SheetsClient.ListRosterNames(app.Ctx, sheet.SheetID, sheet.Tab)
		if err != nil {
			app.Logger.Warn("Failed to read roster sheet, using configured names only", zap.Error(err))
		} else {
			app.StaticRoster = append(app.StaticRoster, names...)
			app.Logger.Debug("Roster sheet loaded", zap.Int("names", len(names)))
		}
	}

	// Identity policy
	var resolver identity.Resolver
	switch app.Cfg.Identity.Policy {
	case config.PolicyAllowList:
		resolver = identity.NewAllowListResolver(app.StaticRoster, app.Database)
	default:
		resolver = identity.NewOpenResolver(app.StaticRoster, app.Database, app.Logger)
	}

	// Live shift repository
	app.Metrics = metrics.New()
	app.Repo = repository.New(app.Database, resolver, app.Logger, app.Metrics)
	if err := app.Repo.Start(app.Ctx); err != nil {
		return fmt.Errorf("failed to start shift repository: %w", err)
	}

	app.Logger.Debug("Application initialized")
	return nil
}

// openDatabase connects the configured driver, namespacing all data by the app id
func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Database, error) {
	logger.Debug("Connecting to database", zap.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := postgres.NewDB(ctx, cfg.Store.DSN, cfg.AppID, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, nil

	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.Store.DSN, cfg.AppID, cfg.Store.PollInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil

	case config.DriverMemory:
		logger.Warn("Using the in-memory store, nothing will be shared or kept")
		return db.NewMemoryDB(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// shutdownApp stops the repository, closes the store and flushes logs
func shutdownApp() {
	if app.Repo != nil {
		app.Repo.Close()
		app.Repo = nil
	}
	if app.Database != nil {
		if err := app.Database.Close(); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to close database", zap.Error(err))
		}
		app.Database = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
