package rules

import (
	"testing"
	"time"

	"tablebook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Monday so relative weekday math stays readable.
var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func validInput() ReservationInput {
	return ReservationInput{
		FirstName:    "Rick",
		LastName:     "Sanchez",
		MobileNumber: "202-555-0164",
		Date:         "2025-03-12", // Wednesday
		Time:         "17:30",
		People:       float64(4),
	}
}

func TestParseHours(t *testing.T) {
	h, err := ParseHours("10:30", "21:30", "Tuesday")
	require.NoError(t, err)
	assert.Equal(t, 10, h.OpenHour)
	assert.Equal(t, 30, h.OpenMinute)
	assert.Equal(t, 21, h.CloseHour)
	assert.Equal(t, 30, h.CloseMinute)
	assert.Equal(t, time.Tuesday, h.ClosedDay)
	assert.Equal(t, "tuesday", h.ClosedDayStr)

	_, err = ParseHours("25:00", "21:30", "Tuesday")
	assert.Error(t, err)

	_, err = ParseHours("10:30", "21:30", "Caturday")
	assert.Error(t, err)
}

func TestNewReservation_Valid(t *testing.T) {
	r, v := NewReservation(validInput(), fixedNow, DefaultHours())
	require.Nil(t, v)
	assert.Equal(t, "Rick", r.FirstName)
	assert.Equal(t, int64(4), r.People)
	assert.Equal(t, models.StatusBooked, r.Status)
}

func TestNewReservation_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReservationInput)
	}{
		{"missing first_name", func(in *ReservationInput) { in.FirstName = "" }},
		{"missing last_name", func(in *ReservationInput) { in.LastName = "" }},
		{"missing mobile_number", func(in *ReservationInput) { in.MobileNumber = "" }},
		{"missing date", func(in *ReservationInput) { in.Date = "" }},
		{"missing time", func(in *ReservationInput) { in.Time = "" }},
		{"missing people", func(in *ReservationInput) { in.People = nil }},
		{"zero people", func(in *ReservationInput) { in.People = float64(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, v := NewReservation(in, fixedNow, DefaultHours())
			require.NotNil(t, v)
			assert.Equal(t, "Include: first_name, last_name, mobile_number, people, reservation_date, and reservation_time.", v.Message)
		})
	}
}

func TestNewReservation_PeopleNotANumber(t *testing.T) {
	in := validInput()
	in.People = "2"
	_, v := NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "people is not a number!", v.Message)
}

func TestNewReservation_InvalidFormats(t *testing.T) {
	in := validInput()
	in.Date = "not-a-date"
	_, v := NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "reservation_date is invalid!", v.Message)

	in = validInput()
	in.Time = "not-a-time"
	_, v = NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "reservation_time is invalid!", v.Message)
}

func TestNewReservation_FutureDateYearGranularity(t *testing.T) {
	in := validInput()
	in.Date = "2024-03-12"
	_, v := NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "Please choose a future date.", v.Message)

	// Same-year past dates pass the coarse check.
	in.Date = "2025-01-08" // Wednesday, before fixedNow
	_, v = NewReservation(in, fixedNow, DefaultHours())
	assert.Nil(t, v)
}

func TestNewReservation_ClosedDay(t *testing.T) {
	in := validInput()
	in.Date = "2025-03-11" // Tuesday
	_, v := NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "we are closed on tuesday", v.Message)
}

func TestNewReservation_OperatingHours(t *testing.T) {
	tests := []struct {
		at      string
		message string
	}{
		{"10:30", ""},
		{"21:30", ""},
		{"12:00", ""},
		{"10:29", "We're not open yet"},
		{"09:00", "We're not open yet"},
		{"21:31", "Too close to closing time or closed!"},
		{"22:00", "Too close to closing time or closed!"},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			in := validInput()
			in.Time = tt.at
			_, v := NewReservation(in, fixedNow, DefaultHours())
			if tt.message == "" {
				assert.Nil(t, v)
			} else {
				require.NotNil(t, v)
				assert.Equal(t, tt.message, v.Message)
			}
		})
	}
}

func TestNewReservation_InitialStatus(t *testing.T) {
	in := validInput()
	in.Status = models.StatusSeated
	_, v := NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "status can not be seated!", v.Message)

	in.Status = models.StatusFinished
	_, v = NewReservation(in, fixedNow, DefaultHours())
	require.NotNil(t, v)
	assert.Equal(t, "status can not be finished!", v.Message)

	// An explicit booked status is fine; the result is booked either way.
	in.Status = models.StatusBooked
	r, v := NewReservation(in, fixedNow, DefaultHours())
	require.Nil(t, v)
	assert.Equal(t, models.StatusBooked, r.Status)
}

func TestUpdatedReservation(t *testing.T) {
	in := validInput()
	r, v := UpdatedReservation(in)
	require.Nil(t, v)
	assert.Equal(t, int64(4), r.People)

	in.FirstName = ""
	_, v = UpdatedReservation(in)
	require.NotNil(t, v)
	assert.Equal(t, "Include: first_name, last_name, mobile_number, reservation_date, reservation_time, and people", v.Message)

	in = validInput()
	in.People = "four"
	_, v = UpdatedReservation(in)
	require.NotNil(t, v)
	assert.Equal(t, "people needs to be a number", v.Message)

	// Edits skip scheduling rules: Tuesday and off-hours are accepted.
	in = validInput()
	in.Date = "2025-03-11"
	in.Time = "23:00"
	_, v = UpdatedReservation(in)
	assert.Nil(t, v)
}

func TestStatusTransition(t *testing.T) {
	assert.Nil(t, StatusTransition(models.StatusBooked, models.StatusSeated))
	assert.Nil(t, StatusTransition(models.StatusSeated, models.StatusFinished))
	assert.Nil(t, StatusTransition(models.StatusBooked, models.StatusCancelled))
	assert.Nil(t, StatusTransition(models.StatusSeated, models.StatusCancelled))

	v := StatusTransition(models.StatusFinished, models.StatusBooked)
	require.NotNil(t, v)
	assert.Equal(t, "finished reservation cannot be updated", v.Message)

	// finished is terminal even for cancellation.
	v = StatusTransition(models.StatusFinished, models.StatusCancelled)
	require.NotNil(t, v)
	assert.Equal(t, "finished reservation cannot be updated", v.Message)

	v = StatusTransition(models.StatusBooked, "tipsy")
	require.NotNil(t, v)
	assert.Equal(t, "unknown status", v.Message)
}

func TestNewTable(t *testing.T) {
	table, v := NewTable(TableInput{Name: "Bar #1", Capacity: float64(1)})
	require.Nil(t, v)
	assert.Equal(t, "Bar #1", table.Name)
	assert.Equal(t, int64(1), table.Capacity)
	assert.False(t, table.Occupied)

	_, v = NewTable(TableInput{Name: "B", Capacity: float64(4)})
	require.NotNil(t, v)
	assert.Equal(t, "Invalid table_name", v.Message)

	_, v = NewTable(TableInput{Name: "Bar #1", Capacity: "4"})
	require.NotNil(t, v)
	assert.Equal(t, "Invalid capacity", v.Message)

	_, v = NewTable(TableInput{Name: "Bar #1", Capacity: float64(0)})
	require.NotNil(t, v)
	assert.Equal(t, "Invalid capacity", v.Message)

	// Seeding with a reservation marks the table occupied.
	rid := int64(7)
	table, v = NewTable(TableInput{Name: "Patio", Capacity: float64(6), ReservationID: &rid})
	require.Nil(t, v)
	assert.True(t, table.Occupied)
	require.NotNil(t, table.ReservationID)
	assert.Equal(t, int64(7), *table.ReservationID)
}

func TestSeatCheck(t *testing.T) {
	table := &models.Table{Name: "Window", Capacity: 4}
	reservation := &models.Reservation{People: 4, Status: models.StatusBooked}

	assert.Nil(t, SeatCheck(table, reservation))

	seated := &models.Reservation{People: 2, Status: models.StatusSeated}
	v := SeatCheck(table, seated)
	require.NotNil(t, v)
	assert.Equal(t, "Already seated", v.Message)

	big := &models.Reservation{People: 6, Status: models.StatusBooked}
	v = SeatCheck(table, big)
	require.NotNil(t, v)
	assert.Equal(t, "Window does not have the capacity.", v.Message)

	occupied := &models.Table{Name: "Window", Capacity: 4, Occupied: true}
	v = SeatCheck(occupied, reservation)
	require.NotNil(t, v)
	assert.Equal(t, "Window is currently occupied.", v.Message)
}

func TestReleaseCheck(t *testing.T) {
	free := &models.Table{Name: "Window", Capacity: 4}
	v := ReleaseCheck(free)
	require.NotNil(t, v)
	assert.Equal(t, "Window not occupied.", v.Message)

	occupied := &models.Table{Name: "Window", Capacity: 4, Occupied: true}
	assert.Nil(t, ReleaseCheck(occupied))
}
