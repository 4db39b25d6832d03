package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

// ToggleStatus flips the point between open and closed.
// Concurrent toggles are not coordinated; the last write wins.
func ToggleStatus(ctx context.Context, store db.StatusStore, session *auth.Session, logger *zap.Logger) (*model.PointStatus, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	current, err := store.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point status: %w", err)
	}

	next := model.Toggle(current.IsOpen)
	if err := store.SetStatusOpen(ctx, next, session.UID); err != nil {
		logger.Error("Failed to write point status", zap.Bool("is_open", next), zap.Error(err))
		return nil, fmt.Errorf("failed to write point status: %w", err)
	}

	logger.Info("Point status toggled", zap.Bool("is_open", next), zap.String("uid", session.UID))

	updated, err := store.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point status: %w", err)
	}
	return updated, nil
}

// SetStatusNote replaces the free-text note shown next to the status, leaving the open flag alone
func SetStatusNote(ctx context.Context, store db.StatusStore, session *auth.Session, logger *zap.Logger, note string) error {
	if err := requireSession(session); err != nil {
		return err
	}

	if err := store.SetStatusNote(ctx, note, session.UID); err != nil {
		logger.Error("Failed to write status note", zap.Error(err))
		return fmt.Errorf("failed to write status note: %w", err)
	}

	logger.Info("Status note updated", zap.String("uid", session.UID))
	return nil
}
