package database

import (
	"context"
	"testing"

	"tablebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func testReservation() *models.Reservation {
	return &models.Reservation{
		FirstName:    "Rick",
		LastName:     "Sanchez",
		MobileNumber: "(202) 555-0164",
		Date:         "2025-06-18",
		Time:         "18:00",
		People:       4,
		Status:       models.StatusBooked,
	}
}

func TestCreateAndGetReservation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	r := testReservation()
	require.NoError(t, db.CreateReservation(ctx, r))
	assert.NotZero(t, r.ID)

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rick", got.FirstName)
	assert.Equal(t, "(202) 555-0164", got.MobileNumber)
	assert.Equal(t, models.StatusBooked, got.Status)
}

func TestGetReservation_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetReservation(context.Background(), 999)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestUpdateReservation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	r := testReservation()
	require.NoError(t, db.CreateReservation(ctx, r))

	updated := testReservation()
	updated.FirstName = "Morty"
	updated.People = 2
	require.NoError(t, db.UpdateReservation(ctx, r.ID, updated))

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morty", got.FirstName)
	assert.Equal(t, int64(2), got.People)
	// Status column is untouched by detail updates.
	assert.Equal(t, models.StatusBooked, got.Status)

	err = db.UpdateReservation(ctx, 999, updated)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestUpdateReservationStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	r := testReservation()
	require.NoError(t, db.CreateReservation(ctx, r))

	require.NoError(t, db.UpdateReservationStatus(ctx, r.ID, models.StatusCancelled))
	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	err = db.UpdateReservationStatus(ctx, 999, models.StatusSeated)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestGetReservationsByDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	late := testReservation()
	late.Time = "20:00"
	require.NoError(t, db.CreateReservation(ctx, late))

	early := testReservation()
	early.Time = "11:00"
	require.NoError(t, db.CreateReservation(ctx, early))

	finished := testReservation()
	finished.Time = "12:00"
	finished.Status = models.StatusFinished
	require.NoError(t, db.CreateReservation(ctx, finished))

	otherDay := testReservation()
	otherDay.Date = "2025-06-19"
	require.NoError(t, db.CreateReservation(ctx, otherDay))

	listed, err := db.GetReservationsByDate(ctx, "2025-06-18")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// Finished reservations drop out; the rest sort by time.
	assert.Equal(t, "11:00", listed[0].Time)
	assert.Equal(t, "20:00", listed[1].Time)
}

func TestSearchReservationsByMobile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	formatted := testReservation()
	require.NoError(t, db.CreateReservation(ctx, formatted))

	plain := testReservation()
	plain.MobileNumber = "8005550199"
	plain.Date = "2025-06-01"
	require.NoError(t, db.CreateReservation(ctx, plain))

	// Digits-only query finds the punctuation-formatted number.
	found, err := db.SearchReservationsByMobile(ctx, "2025550164")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "(202) 555-0164", found[0].MobileNumber)

	// Formatted query finds the plain number.
	found, err = db.SearchReservationsByMobile(ctx, "800-555")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "8005550199", found[0].MobileNumber)

	// Partial match, ordered by date.
	found, err = db.SearchReservationsByMobile(ctx, "555")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "2025-06-01", found[0].Date)
	assert.Equal(t, "2025-06-18", found[1].Date)
}

func TestGetReservationsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, date := range []string{"2025-06-10", "2025-06-18", "2025-06-25"} {
		r := testReservation()
		r.Date = date
		require.NoError(t, db.CreateReservation(ctx, r))
	}

	start, end := parseDay(t, "2025-06-12"), parseDay(t, "2025-06-20")
	listed, err := db.GetReservationsByDateRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "2025-06-18", listed[0].Date)
}
