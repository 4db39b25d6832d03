package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/model"
)

// ShiftEditor defines the repository operations for changing existing shifts
type ShiftEditor interface {
	Update(ctx context.Context, id string, patch model.ShiftPatch) error
	Delete(ctx context.Context, id string) error
}

// EditShift moves a shift to a new date or time. Edits never expand into several dates.
func EditShift(ctx context.Context, editor ShiftEditor, session *auth.Session, logger *zap.Logger, id string, patch model.ShiftPatch) error {
	if err := requireSession(session); err != nil {
		return err
	}
	logger.Debug("Editing shift", zap.String("id", id), zap.String("uid", session.UID))
	return editor.Update(ctx, id, patch)
}

// DeleteShift removes a single shift by id
func DeleteShift(ctx context.Context, editor ShiftEditor, session *auth.Session, logger *zap.Logger, id string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	logger.Debug("Deleting shift", zap.String("id", id), zap.String("uid", session.UID))
	return editor.Delete(ctx, id)
}
