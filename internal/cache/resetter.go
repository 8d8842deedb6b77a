package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Resetter clears the response cache once a day at a fixed wall-clock time,
// after the exchange has published its daily report.
type Resetter struct {
	cache   *Cache
	resetAt string // "15:04"
}

func NewResetter(cache *Cache, resetAt string) *Resetter {
	if _, err := time.Parse("15:04", resetAt); err != nil {
		resetAt = "14:11"
	}
	return &Resetter{
		cache:   cache,
		resetAt: resetAt,
	}
}

// Start begins the daily reset loop. It runs until the context is
// cancelled.
func (r *Resetter) Start(ctx context.Context) {
	logger := log.With().Str("component", "cache_resetter").Logger()
	logger.Info().Str("reset_at", r.resetAt).Msg("starting cache resetter")

	for {
		wait := time.Until(r.nextReset(time.Now()))

		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down cache resetter")
			return
		case <-time.After(wait):
			if err := r.cache.Clear(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to clear response cache")
				continue
			}
			logger.Info().Msg("response cache cleared")
		}
	}
}

// nextReset returns the next occurrence of the configured wall-clock time
// strictly after now.
func (r *Resetter) nextReset(now time.Time) time.Time {
	at, _ := time.Parse("15:04", r.resetAt)

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
