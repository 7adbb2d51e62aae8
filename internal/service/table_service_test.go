package service

import (
	"context"
	"testing"

	"tablebook/internal/database"
	"tablebook/internal/events"
	"tablebook/internal/models"
	"tablebook/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableService_Create(t *testing.T) {
	_, tables, _, _ := setupServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, rules.TableInput{Name: "Bar #1", Capacity: float64(2)})
	require.NoError(t, err)
	assert.NotZero(t, table.ID)

	var violation *rules.Violation
	_, err = tables.Create(ctx, rules.TableInput{Name: "B", Capacity: float64(2)})
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Invalid table_name", violation.Message)
}

func TestTableService_SeatAndFinish(t *testing.T) {
	reservations, tables, db, bus := setupServices(t)
	ctx := context.Background()

	var seen []string
	for _, eventType := range []string{events.EventReservationSeated, events.EventReservationFinished} {
		et := eventType
		bus.Subscribe(et, func(e *events.Event) error {
			seen = append(seen, et)
			return nil
		})
	}

	created, err := reservations.Create(ctx, validServiceInput())
	require.NoError(t, err)
	table, err := tables.Create(ctx, rules.TableInput{Name: "Window", Capacity: float64(4)})
	require.NoError(t, err)

	seated, err := tables.Seat(ctx, table.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, seated.Occupied)
	require.NotNil(t, seated.ReservationID)
	assert.Equal(t, created.ID, *seated.ReservationID)

	got, err := db.GetReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSeated, got.Status)

	finished, err := tables.Finish(ctx, table.ID)
	require.NoError(t, err)
	assert.False(t, finished.Occupied)
	assert.Nil(t, finished.ReservationID)

	got, err = db.GetReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, got.Status)

	assert.Equal(t, []string{events.EventReservationSeated, events.EventReservationFinished}, seen)
}

func TestTableService_SeatRejections(t *testing.T) {
	reservations, tables, _, _ := setupServices(t)
	ctx := context.Background()

	created, err := reservations.Create(ctx, validServiceInput())
	require.NoError(t, err)
	small, err := tables.Create(ctx, rules.TableInput{Name: "Bar #1", Capacity: float64(1)})
	require.NoError(t, err)

	var violation *rules.Violation
	_, err = tables.Seat(ctx, small.ID, created.ID)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Bar #1 does not have the capacity.", violation.Message)

	table, err := tables.Create(ctx, rules.TableInput{Name: "Window", Capacity: float64(6)})
	require.NoError(t, err)
	_, err = tables.Seat(ctx, table.ID, created.ID)
	require.NoError(t, err)

	// Occupied table.
	second, err := reservations.Create(ctx, validServiceInput())
	require.NoError(t, err)
	_, err = tables.Seat(ctx, table.ID, second.ID)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Window is currently occupied.", violation.Message)

	// Seated reservation cannot move to a free table.
	free, err := tables.Create(ctx, rules.TableInput{Name: "Patio", Capacity: float64(6)})
	require.NoError(t, err)
	_, err = tables.Seat(ctx, free.ID, created.ID)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Already seated", violation.Message)

	// Unknown ids surface the store sentinels.
	_, err = tables.Seat(ctx, 999, second.ID)
	assert.ErrorIs(t, err, database.ErrTableNotFound)
	_, err = tables.Seat(ctx, free.ID, 999)
	assert.ErrorIs(t, err, database.ErrReservationNotFound)
}

func TestTableService_FinishNotOccupied(t *testing.T) {
	_, tables, _, _ := setupServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, rules.TableInput{Name: "Window", Capacity: float64(4)})
	require.NoError(t, err)

	var violation *rules.Violation
	_, err = tables.Finish(ctx, table.ID)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Window not occupied.", violation.Message)

	_, err = tables.Finish(ctx, 999)
	assert.ErrorIs(t, err, database.ErrTableNotFound)
}
