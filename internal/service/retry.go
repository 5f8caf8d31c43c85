package service

import (
	"context"
	"log/slog"
	"time"
)

// GuestCartDeleter is the slice of the guest cart store eviction needs.
type GuestCartDeleter interface {
	Delete(ctx context.Context, guestID string) (bool, error)
}

// Evictor deletes a guest cart with a small bounded retry. It is not a
// general retry framework: fixed delay, no backoff, no jitter. Its own
// failure is non-fatal to the merge that triggered it, so the only exit
// signals are a bool and log lines.
type Evictor struct {
	store    GuestCartDeleter
	maxRetry int
	delay    time.Duration
	logger   *slog.Logger
}

// NewEvictor creates an evictor with the injected retry budget.
func NewEvictor(store GuestCartDeleter, maxRetry int, delay time.Duration, logger *slog.Logger) *Evictor {
	return &Evictor{
		store:    store,
		maxRetry: maxRetry,
		delay:    delay,
		logger:   logger,
	}
}

// Evict attempts the delete up to maxRetry times and reports whether the key
// was removed. Success means the store confirmed a key existed and went away;
// "no key found" counts as a failed attempt, because the store's answer is
// authoritative and a healthy merge should always find the cart it just read.
// A store error is logged, consumes a retry slot and waits like any other
// failure. After exhausting retries the evictor logs at error level and
// returns; it never propagates.
func (e *Evictor) Evict(ctx context.Context, guestID string) bool {
	for attempt := 1; attempt <= e.maxRetry; attempt++ {
		deleted, err := e.store.Delete(ctx, guestID)
		if err != nil {
			e.logger.Error("guest cart delete failed",
				"guest_id", guestID, "attempt", attempt, "max_retry", e.maxRetry, "error", err)
		} else if deleted {
			return true
		} else {
			e.logger.Warn("guest cart delete found no key",
				"guest_id", guestID, "attempt", attempt, "max_retry", e.maxRetry)
		}

		if attempt < e.maxRetry {
			select {
			case <-ctx.Done():
				e.logger.Error("guest cart eviction canceled",
					"guest_id", guestID, "attempt", attempt, "error", ctx.Err())
				return false
			case <-time.After(e.delay):
			}
		}
	}

	e.logger.Error("guest cart eviction abandoned after retries",
		"guest_id", guestID, "max_retry", e.maxRetry)
	return false
}
