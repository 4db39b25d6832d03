package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned when user input is rejected before any write
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("bookable", func(fl validator.FieldLevel) bool {
		minutes, err := ClockMinutes(fl.Field().String())
		if err != nil {
			return false
		}
		return IsBookable(minutes)
	})
}

// Validate checks field formats, the bookable grid and that the shift ends after it starts
func (s Shift) Validate() error {
	if strings.TrimSpace(s.VolunteerName) == "" {
		return &ValidationError{Reason: "volunteer name is required"}
	}
	if err := validate.Struct(s); err != nil {
		return toValidationError(err)
	}
	return checkOrder(s.StartTime, s.EndTime)
}

// Validate checks the patched date and times
func (p ShiftPatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return toValidationError(err)
	}
	return checkOrder(p.StartTime, p.EndTime)
}

func checkOrder(start, end string) error {
	startMin, err := ClockMinutes(start)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	endMin, err := ClockMinutes(end)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if endMin <= startMin {
		return &ValidationError{Reason: fmt.Sprintf("end time %s must be after start time %s", end, start)}
	}
	return nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Reason: err.Error()}
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			reasons = append(reasons, fmt.Sprintf("%s is required", fe.Field()))
		case "datetime":
			reasons = append(reasons, fmt.Sprintf("%s %q does not match %s", fe.Field(), fe.Value(), fe.Param()))
		case "bookable":
			reasons = append(reasons, fmt.Sprintf("%s %q must be on the half hour between %s and %s",
				fe.Field(), fe.Value(), FormatClock(OpeningMinute), FormatClock(ClosingMinute)))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &ValidationError{Reason: strings.Join(reasons, "; ")}
}
