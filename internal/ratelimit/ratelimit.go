// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit implements a fixed-window request limiter backed by a
// shared counter table. The allow/deny decision is made from the
// post-increment count of a single atomic upsert, so concurrent requests
// on one key can never both slip under the limit.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glowbook/waitlist/internal/models"
)

// CounterStore is the persistence the limiter needs.
type CounterStore interface {
	IncrementRateLimit(ctx context.Context, key string, windowSeconds, maxPerWindow int, now time.Time) (*models.RateLimitRecord, error)
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter throttles requests per key within a fixed window.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

// New creates a Limiter over the given counter store.
func New(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// NewWithClock creates a Limiter with an injected clock for tests.
func NewWithClock(store CounterStore, now func() time.Time) *Limiter {
	return &Limiter{store: store, now: now}
}

// Key builds a limiter key scoped to an endpoint and client address.
func Key(endpoint, clientIP string) string {
	return fmt.Sprintf("%s:ip:%s", endpoint, clientIP)
}

// Check records one request for key and reports whether it is within the
// limit. The limiter is defense in depth, not a correctness requirement:
// when the counter store itself fails the check fails open and the error is
// only logged.
func (l *Limiter) Check(ctx context.Context, key string, window time.Duration, limit int) Decision {
	now := l.now()

	rec, err := l.store.IncrementRateLimit(ctx, key, int(window.Seconds()), limit, now)
	if err != nil {
		slog.Warn("rate limit store unavailable, failing open", "key", key, "error", err)
		return Decision{Allowed: true}
	}

	if rec.Count <= rec.MaxPerWindow {
		return Decision{Allowed: true}
	}

	retryAfter := rec.WindowEnd().Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Decision{Allowed: false, RetryAfter: retryAfter}
}
