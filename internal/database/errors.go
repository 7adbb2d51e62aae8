package database

import "errors"

var (
	// ErrReservationNotFound means the reservation id matched no row.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrTableNotFound means the table id matched no row.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableOccupied means a seating transaction lost the race for a
	// table that was free when the request was validated.
	ErrTableOccupied = errors.New("table is already occupied")

	// ErrReservationSeated means a seating transaction found the
	// reservation already seated at another table.
	ErrReservationSeated = errors.New("reservation is already seated")
)
