// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/glowbook/waitlist/internal/models"
)

// IncrementRateLimit bumps the counter for key inside a single upsert
// statement and returns the post-increment record. A fresh key starts a
// window at now with count=1; an expired window (now past
// window_start+window_seconds) resets to count=1; otherwise the count is
// incremented in place. Doing insert, rollover and increment in one
// statement is what keeps two racing requests from both reading a
// below-limit count before either writes.
func (r *Repository) IncrementRateLimit(ctx context.Context, key string, windowSeconds, maxPerWindow int, now time.Time) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	err := r.db.GetContext(ctx, &rec, `
		INSERT INTO rate_limits (key, count, window_start, window_seconds, max_per_window, created_at, updated_at)
		VALUES (?, 1, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = CASE
				WHEN excluded.window_start > rate_limits.window_start + rate_limits.window_seconds THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN excluded.window_start > rate_limits.window_start + rate_limits.window_seconds THEN excluded.window_start
				ELSE rate_limits.window_start
			END,
			window_seconds = excluded.window_seconds,
			max_per_window = excluded.max_per_window,
			updated_at = excluded.updated_at
		RETURNING key, count, window_start, window_seconds, max_per_window, created_at, updated_at`,
		key, now.Unix(), windowSeconds, maxPerWindow, now.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRateLimit retrieves the counter record for a key.
func (r *Repository) GetRateLimit(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM rate_limits WHERE key = ?`, key)
	if err != nil {
		return nil, wrapError(err)
	}
	return &rec, nil
}

// DeleteStaleRateLimits garbage-collects counters whose window ended more
// than one full window ago. Counters are never deleted in the request path.
func (r *Repository) DeleteStaleRateLimits(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE ? > window_start + 2 * window_seconds`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
