// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/glowbook/waitlist/internal/models"
)

// UpsertPendingSubscriber inserts or refreshes a subscriber keyed by email
// in one atomic statement and returns the resulting row. A new or pending
// email gets the supplied token; an unsubscribed email flips back to
// pending with the new token; a confirmed email keeps its confirmed status
// and NULL token fields while the profile columns are refreshed. The caller
// inspects the returned status to decide whether a confirmation email is
// due.
func (r *Repository) UpsertPendingSubscriber(ctx context.Context, sub *models.Subscriber, now time.Time) (*models.Subscriber, error) {
	var out models.Subscriber
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO subscribers (email, status, token_hash, token_expires_at, name, phone, address_city, address_state, message, created_at, updated_at)
		VALUES (?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			address_city = excluded.address_city,
			address_state = excluded.address_state,
			message = excluded.message,
			token_hash = CASE
				WHEN subscribers.status = 'confirmed' THEN subscribers.token_hash
				ELSE excluded.token_hash
			END,
			token_expires_at = CASE
				WHEN subscribers.status = 'confirmed' THEN subscribers.token_expires_at
				ELSE excluded.token_expires_at
			END,
			status = CASE
				WHEN subscribers.status = 'unsubscribed' THEN 'pending'
				ELSE subscribers.status
			END,
			updated_at = excluded.updated_at
		RETURNING *`,
		sub.Email, sub.TokenHash, sub.TokenExpiresAt, sub.Name, sub.Phone,
		sub.AddressCity, sub.AddressState, sub.Message, now.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscriberByEmail retrieves a subscriber by email.
func (r *Repository) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.GetContext(ctx, &sub, `SELECT * FROM subscribers WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &sub, nil
}

// GetSubscriberByTokenHash retrieves a subscriber holding the given token hash.
func (r *Repository) GetSubscriberByTokenHash(ctx context.Context, tokenHash string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.GetContext(ctx, &sub, `SELECT * FROM subscribers WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &sub, nil
}

// ConfirmSubscriberByTokenHash flips a pending subscriber to confirmed and
// clears the token fields in one statement. Only an unexpired pending token
// matches, so a replayed token finds no row and the caller sees ErrNotFound.
// Returns the confirmed email.
func (r *Repository) ConfirmSubscriberByTokenHash(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var email string
	err := r.db.GetContext(ctx, &email, `
		UPDATE subscribers
		SET status = 'confirmed', token_hash = NULL, token_expires_at = NULL, updated_at = ?
		WHERE token_hash = ? AND status = 'pending' AND token_expires_at > ?
		RETURNING email`,
		now.UTC(), tokenHash, now.UTC())
	if err != nil {
		return "", wrapError(err)
	}
	return email, nil
}

// UnsubscribeSubscriber marks a subscriber unsubscribed and clears any
// outstanding token.
func (r *Repository) UnsubscribeSubscriber(ctx context.Context, email string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET status = 'unsubscribed', token_hash = NULL, token_expires_at = NULL, updated_at = ?
		WHERE email = ?`,
		now.UTC(), email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
