package domain

import (
	"context"
	"time"

	"tablebook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository is the persistence surface the services orchestrate against.
type Repository interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, id int64, r *models.Reservation) error
	UpdateReservationStatus(ctx context.Context, id int64, status string) error
	GetReservationsByDate(ctx context.Context, date string) ([]models.Reservation, error)
	SearchReservationsByMobile(ctx context.Context, mobile string) ([]models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]models.Reservation, error)

	CreateTable(ctx context.Context, t *models.Table) error
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	GetTables(ctx context.Context) ([]models.Table, error)
	SeatReservation(ctx context.Context, tableID, reservationID int64) error
	FinishTable(ctx context.Context, tableID int64) error
}

// DayCache holds the per-date dashboard listing. A nil slice with nil error
// is a miss.
type DayCache interface {
	GetDay(ctx context.Context, date string) ([]models.Reservation, error)
	SetDay(ctx context.Context, date string, reservations []models.Reservation) error
	InvalidateDay(ctx context.Context, date string) error
}

// EventPublisher fans reservation lifecycle events out to subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncEnqueuer schedules a reservation for the Sheets mirror.
type SyncEnqueuer interface {
	EnqueueTask(ctx context.Context, taskType string, reservationID int64, reservation *models.Reservation, status string) error
}

// TelegramSender is the thin slice of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SheetsWriter mirrors the reservation book into a spreadsheet.
type SheetsWriter interface {
	UpsertReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservationStatus(ctx context.Context, reservationID int64, status string) error
	ReplaceReservationsSheet(ctx context.Context, reservations []models.Reservation) error
}
