// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// RateLimitRecord is a fixed-window counter keyed by "<endpoint>:ip:<addr>".
// WindowStart is stored as unix seconds so the rollover comparison happens
// inside a single SQL statement on integer arithmetic.
type RateLimitRecord struct { //nolint:govet // fieldalignment: readability over optimization
	Key           string    `db:"key"`
	Count         int       `db:"count"`
	WindowStart   int64     `db:"window_start"`
	WindowSeconds int       `db:"window_seconds"`
	MaxPerWindow  int       `db:"max_per_window"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// WindowEnd returns the instant the current window rolls over.
func (r *RateLimitRecord) WindowEnd() time.Time {
	return time.Unix(r.WindowStart+int64(r.WindowSeconds), 0)
}
