package cache

import (
	"context"
	"sync"
	"time"

	"tablebook/internal/models"
)

// MemoryDayCache is the in-process fallback when Redis is unavailable.
type MemoryDayCache struct {
	entries sync.Map
	ttl     time.Duration
}

type memoryEntry struct {
	reservations []models.Reservation
	expiresAt    time.Time
}

func NewMemoryDayCache(ttl time.Duration) *MemoryDayCache {
	return &MemoryDayCache{
		ttl: ttl,
	}
}

func (c *MemoryDayCache) GetDay(ctx context.Context, date string) ([]models.Reservation, error) {
	val, ok := c.entries.Load(date)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.entries.Delete(date)
		return nil, nil
	}
	return entry.reservations, nil
}

func (c *MemoryDayCache) SetDay(ctx context.Context, date string, reservations []models.Reservation) error {
	c.entries.Store(date, &memoryEntry{
		reservations: reservations,
		expiresAt:    time.Now().Add(c.ttl),
	})
	return nil
}

func (c *MemoryDayCache) InvalidateDay(ctx context.Context, date string) error {
	c.entries.Delete(date)
	return nil
}
