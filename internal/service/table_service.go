package service

import (
	"context"

	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/metrics"
	"tablebook/internal/models"
	"tablebook/internal/rules"

	"github.com/rs/zerolog"
)

// TableService owns the floor plan and the two linked state transitions:
// seating couples a table to a reservation, finishing decouples them. Both
// happen inside one store transaction.
type TableService struct {
	repo       domain.Repository
	dayCache   domain.DayCache
	eventBus   domain.EventPublisher
	syncWorker domain.SyncEnqueuer
	logger     *zerolog.Logger
}

func NewTableService(
	repo domain.Repository,
	dayCache domain.DayCache,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncEnqueuer,
	logger *zerolog.Logger,
) *TableService {
	return &TableService{
		repo:       repo,
		dayCache:   dayCache,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

func (s *TableService) Create(ctx context.Context, in rules.TableInput) (*models.Table, error) {
	table, violation := rules.NewTable(in)
	if violation != nil {
		return nil, violation
	}

	if err := s.repo.CreateTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *TableService) Get(ctx context.Context, id int64) (*models.Table, error) {
	return s.repo.GetTable(ctx, id)
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	return s.repo.GetTables(ctx)
}

// Seat assigns a reservation to a table. Validation reads run first so the
// client gets the specific rejection; the store transaction then re-guards
// occupancy and status against racing requests.
func (s *TableService) Seat(ctx context.Context, tableID, reservationID int64) (*models.Table, error) {
	reservation, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	if violation := rules.SeatCheck(table, reservation); violation != nil {
		return nil, violation
	}

	if err := s.repo.SeatReservation(ctx, tableID, reservationID); err != nil {
		return nil, err
	}

	metrics.IncTableSeated()
	s.invalidateDay(ctx, reservation.Date)

	reservation.Status = models.StatusSeated
	s.publishEvent(events.EventReservationSeated, reservation, &tableID)
	s.enqueueSync(ctx, "update_status", reservation, models.StatusSeated)

	return s.repo.GetTable(ctx, tableID)
}

// Finish releases an occupied table and closes out its reservation.
func (s *TableService) Finish(ctx context.Context, tableID int64) (*models.Table, error) {
	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	if violation := rules.ReleaseCheck(table); violation != nil {
		return nil, violation
	}

	var reservation *models.Reservation
	if table.ReservationID != nil {
		reservation, err = s.repo.GetReservation(ctx, *table.ReservationID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("table_id", tableID).Msg("seated reservation missing on finish")
			reservation = nil
		}
	}

	if err := s.repo.FinishTable(ctx, tableID); err != nil {
		return nil, err
	}

	metrics.IncTableFinished()

	if reservation != nil {
		s.invalidateDay(ctx, reservation.Date)
		reservation.Status = models.StatusFinished
		s.publishEvent(events.EventReservationFinished, reservation, &tableID)
		s.enqueueSync(ctx, "update_status", reservation, models.StatusFinished)
	}

	return s.repo.GetTable(ctx, tableID)
}

func (s *TableService) invalidateDay(ctx context.Context, date string) {
	if s.dayCache == nil {
		return
	}
	if err := s.dayCache.InvalidateDay(ctx, date); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("day cache invalidate error")
	}
}

func (s *TableService) publishEvent(eventType string, r *models.Reservation, tableID *int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		MobileNumber:  r.MobileNumber,
		Date:          r.Date,
		Time:          r.Time,
		People:        r.People,
		Status:        r.Status,
		TableID:       tableID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}

func (s *TableService) enqueueSync(ctx context.Context, taskType string, r *models.Reservation, status string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, r.ID, r, status); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", r.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
