package rules

import (
	"encoding/json"
	"time"

	"tablebook/internal/models"
)

// ReservationInput is the raw, untrusted payload of a create or update
// request. People stays untyped until the numeric check runs so that a
// quoted number is rejected with the right message instead of a decode
// error.
type ReservationInput struct {
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	MobileNumber string      `json:"mobile_number"`
	Date         string      `json:"reservation_date"`
	Time         string      `json:"reservation_time"`
	People       interface{} `json:"people"`
	Status       string      `json:"status"`
}

const (
	msgCreateRequired = "Include: first_name, last_name, mobile_number, people, reservation_date, and reservation_time."
	msgUpdateRequired = "Include: first_name, last_name, mobile_number, reservation_date, reservation_time, and people"
)

// NewReservation validates a booking request against the house rules and
// returns the normalized reservation. The pipeline order is fixed: field
// presence, formats, future date, closed day, operating hours, initial
// status. The first failing check wins.
func NewReservation(in ReservationInput, now time.Time, hours Hours) (*models.Reservation, *Violation) {
	var date, at time.Time

	v := Run(
		func() *Violation { return requiredFields(in, msgCreateRequired) },
		func() *Violation { return peopleNumber(in.People, "people is not a number!") },
		func() *Violation {
			var v *Violation
			date, v = parseDate(in.Date, "reservation_date is invalid!")
			return v
		},
		func() *Violation {
			var v *Violation
			at, v = parseTime(in.Time, "reservation_time is invalid!")
			return v
		},
		func() *Violation { return futureDate(date, now) },
		func() *Violation { return openDay(date, hours) },
		func() *Violation { return withinHours(at, hours) },
		func() *Violation { return initialStatus(in.Status) },
	)
	if v != nil {
		return nil, v
	}

	people, _ := peopleCount(in.People)
	return &models.Reservation{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MobileNumber: in.MobileNumber,
		Date:         in.Date,
		Time:         in.Time,
		People:       people,
		Status:       models.StatusBooked,
	}, nil
}

// UpdatedReservation validates a detail-edit request. Edits do not re-check
// scheduling rules; only shape and types.
func UpdatedReservation(in ReservationInput) (*models.Reservation, *Violation) {
	v := Run(
		func() *Violation { return requiredFields(in, msgUpdateRequired) },
		func() *Violation { return peopleNumber(in.People, "people needs to be a number") },
		func() *Violation {
			_, v := parseDate(in.Date, "invalid reservation_date")
			return v
		},
		func() *Violation {
			_, v := parseTime(in.Time, "invalid reservation_time")
			return v
		},
	)
	if v != nil {
		return nil, v
	}

	people, _ := peopleCount(in.People)
	return &models.Reservation{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MobileNumber: in.MobileNumber,
		Date:         in.Date,
		Time:         in.Time,
		People:       people,
	}, nil
}

// StatusTransition rejects transitions out of a terminal status and targets
// outside the known set. Cancelling is always allowed from a live status.
func StatusTransition(current, requested string) *Violation {
	if models.IsTerminal(current) {
		return reject("finished reservation cannot be updated")
	}

	if requested == models.StatusCancelled {
		return nil
	}

	switch requested {
	case models.StatusBooked, models.StatusSeated, models.StatusFinished:
		return nil
	default:
		return reject("unknown status")
	}
}

func requiredFields(in ReservationInput, message string) *Violation {
	if in.FirstName == "" || in.LastName == "" || in.MobileNumber == "" ||
		in.Date == "" || in.Time == "" {
		return &Violation{Message: message}
	}
	if n, ok := peopleCount(in.People); in.People == nil || (ok && n == 0) {
		return &Violation{Message: message}
	}
	return nil
}

func peopleNumber(people interface{}, message string) *Violation {
	n, ok := peopleCount(people)
	if !ok || n < 1 {
		return &Violation{Message: message}
	}
	return nil
}

// peopleCount extracts a party size from a decoded JSON value. Only values
// that arrived as JSON numbers count; strings do not.
func peopleCount(people interface{}) (int64, bool) {
	switch n := people.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		v, err := n.Int64()
		return v, err == nil
	default:
		return 0, false
	}
}

func parseDate(value, message string) (time.Time, *Violation) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &Violation{Message: message}
	}
	return date, nil
}

func parseTime(value, message string) (time.Time, *Violation) {
	at, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, &Violation{Message: message}
	}
	return at, nil
}

// futureDate compares years only. The original system never strengthened
// this to a full date comparison and clients rely on same-year past dates
// being accepted, so the coarse check is kept.
func futureDate(date, now time.Time) *Violation {
	if date.Year() < now.Year() {
		return reject("Please choose a future date.")
	}
	return nil
}

func openDay(date time.Time, hours Hours) *Violation {
	if date.Weekday() == hours.ClosedDay {
		return reject("we are closed on %s", hours.ClosedDayStr)
	}
	return nil
}

// withinHours enforces the seating window. Boundary times are accepted:
// exactly 10:30 and exactly 21:30 pass, minute checks apply only at the
// boundary hours.
func withinHours(at time.Time, hours Hours) *Violation {
	hr, min := at.Hour(), at.Minute()

	if hr < hours.OpenHour || (hr <= hours.OpenHour && min < hours.OpenMinute) {
		return reject("We're not open yet")
	}
	if hr > hours.CloseHour || (hr >= hours.CloseHour && min > hours.CloseMinute) {
		return reject("Too close to closing time or closed!")
	}
	return nil
}

func initialStatus(status string) *Violation {
	switch status {
	case models.StatusSeated:
		return reject("status can not be seated!")
	case models.StatusFinished:
		return reject("status can not be finished!")
	default:
		return nil
	}
}
