package model

import "time"

// Date and clock layouts used for every stored shift field
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Volunteer represents a person who can commit to shifts at the point.
// ID is always Slug(Name).
type Volunteer struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Shift is a single volunteer's availability window on one date
type Shift struct {
	ID            string
	VolunteerName string `validate:"required"`
	Date          string `validate:"required,datetime=2006-01-02"`
	StartTime     string `validate:"required,datetime=15:04,bookable"`
	EndTime       string `validate:"required,datetime=15:04,bookable"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ShiftPatch holds the only fields an edit may change
type ShiftPatch struct {
	Date      string `validate:"required,datetime=2006-01-02"`
	StartTime string `validate:"required,datetime=15:04,bookable"`
	EndTime   string `validate:"required,datetime=15:04,bookable"`
}

// Apply returns a copy of s with the patched date and times
func (p ShiftPatch) Apply(s Shift) Shift {
	s.Date = p.Date
	s.StartTime = p.StartTime
	s.EndTime = p.EndTime
	return s
}

// PointStatus is the single open/closed record for the point
type PointStatus struct {
	IsOpen    bool
	Note      string
	UpdatedBy string
	UpdatedAt time.Time
}

// Toggle flips the open flag
func Toggle(current bool) bool {
	return !current
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
