package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tablebook/internal/database"
	"tablebook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	upserts  []int64
	statuses map[int64]string
	replaced [][]models.Reservation
	fail     bool
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{statuses: make(map[int64]string)}
}

func (f *fakeSheets) UpsertReservation(ctx context.Context, r *models.Reservation) error {
	if f.fail {
		return errors.New("sheets down")
	}
	f.upserts = append(f.upserts, r.ID)
	return nil
}

func (f *fakeSheets) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	if f.fail {
		return errors.New("sheets down")
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeSheets) ReplaceReservationsSheet(ctx context.Context, reservations []models.Reservation) error {
	if f.fail {
		return errors.New("sheets down")
	}
	f.replaced = append(f.replaced, reservations)
	return nil
}

func newTestWorker(t *testing.T, sheets *fakeSheets, redisClient *redis.Client) (*SyncWorker, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := NewSyncWorker(db, sheets, redisClient, RetryPolicy{MaxRetries: 3}, &logger)
	return w, db
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	// Clamped at MaxDelay.
	assert.Equal(t, 10*time.Second, p.NextDelay(10))
	// Defensive defaults.
	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(0))
}

func TestEnqueueTask_PersistsToQueue(t *testing.T) {
	w, db := newTestWorker(t, newFakeSheets(), nil)
	ctx := context.Background()

	r := &models.Reservation{ID: 7, FirstName: "Rick", Date: "2025-06-18", Time: "17:30", People: 4}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, r.ID, r, ""))

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, TaskUpsert, pending[0].TaskType)
	assert.Equal(t, int64(7), pending[0].ReservationID)

	assert.Error(t, w.EnqueueTask(ctx, "", r.ID, r, ""))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, 0, nil, ""))
}

func TestEnqueueTask_RedisPush(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	w, _ := newTestWorker(t, newFakeSheets(), client)
	ctx := context.Background()

	r := &models.Reservation{ID: 7}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, r.ID, r, ""))

	n, err := client.LLen(ctx, w.redisQueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProcessTask_Upsert(t *testing.T) {
	sheets := newFakeSheets()
	w, db := newTestWorker(t, sheets, nil)
	ctx := context.Background()

	r := &models.Reservation{ID: 7, FirstName: "Rick"}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, r.ID, r, ""))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])
	assert.Equal(t, []int64{7}, sheets.upserts)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessTask_UpdateStatus(t *testing.T) {
	sheets := newFakeSheets()
	w, db := newTestWorker(t, sheets, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, 7, nil, models.StatusCancelled))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])
	assert.Equal(t, models.StatusCancelled, sheets.statuses[7])
}

func TestProcessTask_RetryThenFail(t *testing.T) {
	sheets := newFakeSheets()
	sheets.fail = true
	w, db := newTestWorker(t, sheets, nil)
	ctx := context.Background()

	r := &models.Reservation{ID: 7}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, r.ID, r, ""))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	task := tasks[0]

	// First attempts schedule a retry with backoff.
	w.processTask(ctx, &task)
	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	// Once attempts reach the cap, the task fails for good.
	task.RetryCount = w.retryPolicy.MaxRetries
	w.processTask(ctx, &task)
	failed, err = db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "sheets down", *failed[0].LastError)
}

func TestProcessTask_UnknownType(t *testing.T) {
	w, db := newTestWorker(t, newFakeSheets(), nil)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "vacuum", ReservationID: 1, Payload: `{"reservation_id":1}`, Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	for i := 0; i < w.retryPolicy.MaxRetries; i++ {
		w.processTask(ctx, task)
		task.RetryCount++
	}

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestResync_ReplacesSheetFromStore(t *testing.T) {
	sheets := newFakeSheets()
	w, db := newTestWorker(t, sheets, nil)
	ctx := context.Background()

	inRange := &models.Reservation{
		FirstName: "Rick", LastName: "Sanchez", MobileNumber: "(202) 555-0164",
		Date: time.Now().AddDate(0, 0, 7).Format("2006-01-02"), Time: "17:30",
		People: 4, Status: models.StatusBooked,
	}
	require.NoError(t, db.CreateReservation(ctx, inRange))

	outOfRange := &models.Reservation{
		FirstName: "Morty", LastName: "Smith", MobileNumber: "(202) 555-0199",
		Date: time.Now().AddDate(0, 6, 0).Format("2006-01-02"), Time: "18:00",
		People: 2, Status: models.StatusBooked,
	}
	require.NoError(t, db.CreateReservation(ctx, outOfRange))

	w.Resync(ctx)

	require.Len(t, sheets.replaced, 1)
	require.Len(t, sheets.replaced[0], 1)
	assert.Equal(t, inRange.ID, sheets.replaced[0][0].ID)
}
