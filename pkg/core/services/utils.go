package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/model"
)

// ErrUnauthenticated is returned when a write is attempted without a valid session
var ErrUnauthenticated = errors.New("not signed in")

// requireSession fails unless the caller holds a live session
func requireSession(session *auth.Session) error {
	if !session.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// ParseDateInput parses a YYYY-MM-DD user input, returning a ValidationError on bad input
func ParseDateInput(field, value string) (time.Time, error) {
	d, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, &model.ValidationError{Reason: fmt.Sprintf("%s %q is not a YYYY-MM-DD date", field, value)}
	}
	return d, nil
}
