// Package rules holds the restaurant's pure business-rule validators.
// Every check is a function over proposed data that returns nil on
// acceptance or a *Violation carrying the user-visible rejection message.
// Handlers compose checks into ordered pipelines and stop at the first
// violation, before any store mutation.
package rules

import (
	"fmt"
	"strings"
	"time"

	"tablebook/internal/models"
)

// Violation is a business-rule rejection. It maps to HTTP 400.
type Violation struct {
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func reject(format string, args ...interface{}) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

// Check is a single step of a validation pipeline.
type Check func() *Violation

// Run executes checks in order and returns the first violation.
func Run(checks ...Check) *Violation {
	for _, check := range checks {
		if v := check(); v != nil {
			return v
		}
	}
	return nil
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Hours describes when the restaurant accepts reservations.
type Hours struct {
	OpenHour     int
	OpenMinute   int
	CloseHour    int
	CloseMinute  int
	ClosedDay    time.Weekday
	ClosedDayStr string
}

// ParseHours builds Hours from config strings ("10:30", "21:30", "Tuesday").
func ParseHours(open, close, closedWeekday string) (Hours, error) {
	openAt, err := time.Parse(timeLayout, open)
	if err != nil {
		return Hours{}, fmt.Errorf("invalid opening time %q: %w", open, err)
	}
	closeAt, err := time.Parse(timeLayout, close)
	if err != nil {
		return Hours{}, fmt.Errorf("invalid closing time %q: %w", close, err)
	}

	day, ok := weekdays[strings.ToLower(strings.TrimSpace(closedWeekday))]
	if !ok {
		return Hours{}, fmt.Errorf("unknown weekday %q", closedWeekday)
	}

	return Hours{
		OpenHour:     openAt.Hour(),
		OpenMinute:   openAt.Minute(),
		CloseHour:    closeAt.Hour(),
		CloseMinute:  closeAt.Minute(),
		ClosedDay:    day,
		ClosedDayStr: strings.ToLower(strings.TrimSpace(closedWeekday)),
	}, nil
}

// DefaultHours returns the 10:30–21:30, closed-Tuesday schedule.
func DefaultHours() Hours {
	h, _ := ParseHours(models.DefaultOpeningTime, models.DefaultClosingTime, models.DefaultClosedWeekday)
	return h
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}
