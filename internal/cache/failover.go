package cache

import (
	"context"
	"sync/atomic"
	"time"

	"tablebook/internal/domain"
	"tablebook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverDayCache serves from the primary cache until it errors, then
// switches to the fallback and probes the primary again after a minute.
type FailoverDayCache struct {
	primary   domain.DayCache
	fallback  domain.DayCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDayCache(primary, fallback domain.DayCache, logger *zerolog.Logger) *FailoverDayCache {
	return &FailoverDayCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverDayCache) GetDay(ctx context.Context, date string) ([]models.Reservation, error) {
	if !c.isDown.Load() {
		reservations, err := c.primary.GetDay(ctx, date)
		if err == nil {
			return reservations, nil
		}
		c.logger.Error().Err(err).Msg("Primary day cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if c.isDown.Load() && time.Since(c.lastCheck) > time.Minute {
		reservations, err := c.primary.GetDay(ctx, date)
		if err == nil {
			c.isDown.Store(false)
			return reservations, nil
		}
		c.lastCheck = time.Now()
	}

	return c.fallback.GetDay(ctx, date)
}

func (c *FailoverDayCache) SetDay(ctx context.Context, date string, reservations []models.Reservation) error {
	if !c.isDown.Load() {
		err := c.primary.SetDay(ctx, date, reservations)
		if err == nil {
			return nil
		}
		c.logger.Error().Err(err).Msg("Primary day cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	return c.fallback.SetDay(ctx, date, reservations)
}

func (c *FailoverDayCache) InvalidateDay(ctx context.Context, date string) error {
	// Invalidation goes to both sides so a recovered primary never serves
	// a listing that was dropped while it was down.
	var primaryErr error
	if !c.isDown.Load() {
		primaryErr = c.primary.InvalidateDay(ctx, date)
		if primaryErr != nil {
			c.logger.Error().Err(primaryErr).Msg("Primary day cache failed, falling back to memory")
			c.isDown.Store(true)
			c.lastCheck = time.Now()
		}
	}

	return c.fallback.InvalidateDay(ctx, date)
}
