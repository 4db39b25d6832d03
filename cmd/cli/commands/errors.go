package commands

import (
	"errors"
	"fmt"

	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/services"
	"github.com/jakechorley/point-rota/pkg/db"
)

// FormatError renders a command error for the terminal
func FormatError(err error) string {
	switch {
	case model.IsValidationError(err):
		var verr *model.ValidationError
		errors.As(err, &verr)
		return fmt.Sprintf("⚠️  %s", verr.Reason)
	case errors.Is(err, services.ErrUnauthenticated):
		return "🔒 Not signed in, check the session settings in your config"
	case errors.Is(err, identity.ErrUnknownVolunteer):
		return fmt.Sprintf("⚠️  %v (ask an organiser to add the name to the roster)", err)
	case errors.Is(err, db.ErrNotFound):
		return fmt.Sprintf("❓ %v", err)
	default:
		return fmt.Sprintf("❌ Error: %v", err)
	}
}
