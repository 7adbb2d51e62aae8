package models

import "time"

// Table is a physical seating unit with fixed capacity.
// Invariant: Occupied is true iff ReservationID is set. Both fields change
// only together, inside a seating or finishing transaction.
type Table struct {
	ID            int64     `json:"table_id"`
	Name          string    `json:"table_name"`
	Capacity      int64     `json:"capacity"`
	Occupied      bool      `json:"occupied"`
	ReservationID *int64    `json:"reservation_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
