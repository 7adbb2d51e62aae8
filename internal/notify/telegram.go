package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// DayLister provides the reservation listing the daily digest reads.
type DayLister interface {
	ListByDate(ctx context.Context, date string) ([]models.Reservation, error)
}

// TelegramNotifier pushes reservation lifecycle updates and a daily digest
// to the manager chat.
type TelegramNotifier struct {
	sender        domain.TelegramSender
	managerChatID int64
	lister        DayLister
	logger        *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, managerChatID int64, lister DayLister, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:        sender,
		managerChatID: managerChatID,
		lister:        lister,
		logger:        logger,
	}
}

// SubscribeAll wires the notifier to reservation lifecycle events.
func (n *TelegramNotifier) SubscribeAll(bus *events.EventBus) {
	if bus == nil {
		return
	}
	for _, eventType := range []string{
		events.EventReservationBooked,
		events.EventReservationSeated,
		events.EventReservationFinished,
		events.EventReservationCancelled,
	} {
		bus.Subscribe(eventType, n.handleEvent)
	}
}

func (n *TelegramNotifier) handleEvent(event *events.Event) error {
	var payload events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event payload")
		return err
	}

	text := formatEventMessage(event.Type, payload)
	if text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(n.managerChatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("reservation_id", payload.ReservationID).Msg("telegram send error")
		return err
	}
	return nil
}

func formatEventMessage(eventType string, p events.ReservationEventPayload) string {
	who := fmt.Sprintf("%s %s (%s), %d guests, %s %s",
		p.FirstName, p.LastName, p.MobileNumber, p.People, p.Date, p.Time)

	switch eventType {
	case events.EventReservationBooked:
		return "New reservation #" + fmt.Sprint(p.ReservationID) + ": " + who
	case events.EventReservationSeated:
		if p.TableID != nil {
			return fmt.Sprintf("Reservation #%d seated at table %d: %s", p.ReservationID, *p.TableID, who)
		}
		return fmt.Sprintf("Reservation #%d seated: %s", p.ReservationID, who)
	case events.EventReservationFinished:
		return fmt.Sprintf("Reservation #%d finished: %s", p.ReservationID, who)
	case events.EventReservationCancelled:
		return fmt.Sprintf("Reservation #%d cancelled: %s", p.ReservationID, who)
	default:
		return ""
	}
}

// StartDigest sends the day's reservation list to the manager chat once a
// day at the configured time ("HH:MM").
func (n *TelegramNotifier) StartDigest(ctx context.Context, digestTime string) {
	go func() {
		hour := models.DigestHour
		if digestTime != "" {
			var m int
			if _, err := fmt.Sscanf(digestTime, "%d:%d", &hour, &m); err != nil {
				n.logger.Error().Err(err).Str("digest_time", digestTime).Msg("invalid digest time format")
				return
			}
		}

		timer := time.NewTimer(timeUntilNextHour(hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				n.sendDigest(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (n *TelegramNotifier) sendDigest(ctx context.Context) {
	today := time.Now().Format("2006-01-02")
	reservations, err := n.lister.ListByDate(ctx, today)
	if err != nil {
		n.logger.Error().Err(err).Str("date", today).Msg("digest: list reservations error")
		return
	}

	msg := tgbotapi.NewMessage(n.managerChatID, formatDigest(today, reservations))
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("digest: send error")
	}
}

func formatDigest(date string, reservations []models.Reservation) string {
	if len(reservations) == 0 {
		return "Reservations for " + date + ": none"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reservations for %s (%d):\n", date, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		fmt.Fprintf(&b, "%s - %s %s, %d guests (%s), %s\n",
			r.Time, r.FirstName, r.LastName, r.People, r.MobileNumber, r.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
