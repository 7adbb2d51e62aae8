package models

import "time"

// Reservation is a booking for a party at a future date and time.
// Date and Time are stored as calendar strings (YYYY-MM-DD, HH:MM) because
// the restaurant has no timezone semantics; parsing happens in the rules
// package exactly once per request.
type Reservation struct {
	ID           int64     `json:"reservation_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	MobileNumber string    `json:"mobile_number"`
	Date         string    `json:"reservation_date"`
	Time         string    `json:"reservation_time"`
	People       int64     `json:"people"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
