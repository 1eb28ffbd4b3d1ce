// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Subscriber statuses.
const (
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusUnsubscribed = "unsubscribed"
)

// Subscriber is a waitlist signup. The confirmation token is stored as a
// SHA256 hash; the plaintext only ever travels inside the confirmation email.
// Token fields are non-NULL exactly while the subscriber is pending.
type Subscriber struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Status         string     `db:"status" json:"status"`
	TokenHash      *string    `db:"token_hash" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"-"`
	Name           string     `db:"name" json:"name"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	AddressCity    string     `db:"address_city" json:"address_city"`
	AddressState   string     `db:"address_state" json:"address_state"`
	Message        *string    `db:"message" json:"message,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
