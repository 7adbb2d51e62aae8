package rules

import (
	"tablebook/internal/models"
)

// TableInput is the raw payload of a table creation request. Capacity stays
// untyped so a quoted number is rejected as invalid rather than failing to
// decode.
type TableInput struct {
	Name          string      `json:"table_name"`
	Capacity      interface{} `json:"capacity"`
	ReservationID *int64      `json:"reservation_id"`
}

// NewTable validates a table creation request. A reservation id may be
// supplied to seed the table occupied, which the floor plan importer uses.
func NewTable(in TableInput) (*models.Table, *Violation) {
	v := Run(
		func() *Violation { return tableName(in.Name) },
		func() *Violation { return tableCapacity(in.Capacity) },
	)
	if v != nil {
		return nil, v
	}

	capacity, _ := peopleCount(in.Capacity)
	table := &models.Table{
		Name:     in.Name,
		Capacity: capacity,
	}
	if in.ReservationID != nil {
		table.ReservationID = in.ReservationID
		table.Occupied = true
	}
	return table, nil
}

// SeatCheck validates assigning a reservation to a table: the party has to
// fit and the table has to be free. The reservation must not be seated
// elsewhere already.
func SeatCheck(table *models.Table, reservation *models.Reservation) *Violation {
	if reservation.Status == models.StatusSeated {
		return reject("Already seated")
	}
	if table.Capacity < reservation.People {
		return reject("%s does not have the capacity.", table.Name)
	}
	if table.Occupied {
		return reject("%s is currently occupied.", table.Name)
	}
	return nil
}

// ReleaseCheck validates finishing a table. Only occupied tables release.
func ReleaseCheck(table *models.Table) *Violation {
	if !table.Occupied {
		return reject("%s not occupied.", table.Name)
	}
	return nil
}

func tableName(name string) *Violation {
	if len(name) < 2 {
		return reject("Invalid table_name")
	}
	return nil
}

func tableCapacity(capacity interface{}) *Violation {
	n, ok := peopleCount(capacity)
	if !ok || n < 1 {
		return reject("Invalid capacity")
	}
	return nil
}
