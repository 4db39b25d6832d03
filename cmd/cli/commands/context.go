package commands

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/internal/config"
	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/clients/sheetsclient"
	"github.com/jakechorley/point-rota/pkg/core/repository"
	"github.com/jakechorley/point-rota/pkg/db"
	"github.com/jakechorley/point-rota/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Repo     *repository.Repository
	Session  *auth.Session
	// StaticRoster is the configured roster, including names read from the roster sheet
	StaticRoster []string
	// SheetsClient is nil unless a roster sheet is configured
	SheetsClient *sheetsclient.Client
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Ctx          context.Context
	Out          io.Writer
	Now          func() time.Time
}

// today returns the current date in the point's timezone
func (a *AppContext) today() time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	t := now().In(a.Cfg.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
