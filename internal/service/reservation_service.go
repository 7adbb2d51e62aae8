package service

import (
	"context"
	"time"

	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/metrics"
	"tablebook/internal/models"
	"tablebook/internal/rules"

	"github.com/rs/zerolog"
)

// ReservationService runs the booking rules ahead of every mutation and
// keeps the day cache, the event bus and the Sheets queue in step with the
// store.
type ReservationService struct {
	repo       domain.Repository
	dayCache   domain.DayCache
	eventBus   domain.EventPublisher
	syncWorker domain.SyncEnqueuer
	hours      rules.Hours
	logger     *zerolog.Logger
}

func NewReservationService(
	repo domain.Repository,
	dayCache domain.DayCache,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncEnqueuer,
	hours rules.Hours,
	logger *zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		repo:       repo,
		dayCache:   dayCache,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		hours:      hours,
		logger:     logger,
	}
}

func (s *ReservationService) Create(ctx context.Context, in rules.ReservationInput) (*models.Reservation, error) {
	reservation, violation := rules.NewReservation(in, time.Now(), s.hours)
	if violation != nil {
		return nil, violation
	}

	if err := s.repo.CreateReservation(ctx, reservation); err != nil {
		return nil, err
	}

	metrics.IncReservationCreated()
	s.invalidateDay(ctx, reservation.Date)
	s.publishEvent(events.EventReservationBooked, reservation, nil)
	s.enqueueSync(ctx, "upsert", reservation, "")

	return reservation, nil
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func (s *ReservationService) Update(ctx context.Context, id int64, in rules.ReservationInput) (*models.Reservation, error) {
	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, violation := rules.UpdatedReservation(in)
	if violation != nil {
		return nil, violation
	}

	if err := s.repo.UpdateReservation(ctx, id, updated); err != nil {
		return nil, err
	}

	// When the booking moved to another day both listings are stale.
	s.invalidateDay(ctx, current.Date)
	if updated.Date != current.Date {
		s.invalidateDay(ctx, updated.Date)
	}

	fresh, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enqueueSync(ctx, "upsert", fresh, "")

	return fresh, nil
}

// UpdateStatus applies a direct status transition. Tables are never touched
// here; seating and finishing go through TableService.
func (s *ReservationService) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return "", err
	}

	if violation := rules.StatusTransition(current.Status, status); violation != nil {
		return "", violation
	}

	if err := s.repo.UpdateReservationStatus(ctx, id, status); err != nil {
		return "", err
	}

	s.invalidateDay(ctx, current.Date)

	current.Status = status
	if status == models.StatusCancelled {
		s.publishEvent(events.EventReservationCancelled, current, nil)
	}
	s.enqueueSync(ctx, "update_status", current, status)

	return status, nil
}

// ListByDate serves the dashboard for one day, preferring the cache.
func (s *ReservationService) ListByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	if s.dayCache != nil {
		if cached, err := s.dayCache.GetDay(ctx, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	reservations, err := s.repo.GetReservationsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}

	if s.dayCache != nil {
		if err := s.dayCache.SetDay(ctx, date, reservations); err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("day cache set error")
		}
	}

	return reservations, nil
}

func (s *ReservationService) SearchByMobile(ctx context.Context, mobile string) ([]models.Reservation, error) {
	return s.repo.SearchReservationsByMobile(ctx, mobile)
}

func (s *ReservationService) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	return s.repo.GetReservationsByDateRange(ctx, start, end)
}

func (s *ReservationService) invalidateDay(ctx context.Context, date string) {
	if s.dayCache == nil {
		return
	}
	if err := s.dayCache.InvalidateDay(ctx, date); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("day cache invalidate error")
	}
}

func (s *ReservationService) publishEvent(eventType string, r *models.Reservation, tableID *int64) {
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

func (s *ReservationService) enqueueSync(ctx context.Context, taskType string, r *models.Reservation, status string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, r.ID, r, status); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", r.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
