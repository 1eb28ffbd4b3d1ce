// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/glowbook/waitlist/internal/models"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/glowbook/waitlist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSubscriber(email, tokenHash string, expiresAt time.Time) *models.Subscriber {
	return &models.Subscriber{
		Email:          email,
		Name:           "Asha Rao",
		AddressCity:    "Pune",
		AddressState:   "MH",
		TokenHash:      &tokenHash,
		TokenExpiresAt: &expiresAt,
	}
}

func TestUpsertPendingSubscriber_New(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	sub, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)

	require.NoError(t, err)
	assert.NotZero(t, sub.ID)
	assert.Equal(t, models.StatusPending, sub.Status)
	require.NotNil(t, sub.TokenHash)
	assert.Equal(t, "hash1", *sub.TokenHash)
	require.NotNil(t, sub.TokenExpiresAt)
	assert.WithinDuration(t, expires, *sub.TokenExpiresAt, time.Second)
}

func TestUpsertPendingSubscriber_ReissuesTokenWhilePending(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	first, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)
	require.NoError(t, err)

	second, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash2", expires), now)

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.StatusPending, second.Status)
	require.NotNil(t, second.TokenHash)
	assert.Equal(t, "hash2", *second.TokenHash)
}

func TestUpsertPendingSubscriber_ConfirmedKeepsStatus(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	_, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)
	require.NoError(t, err)
	_, err = repo.ConfirmSubscriberByTokenHash(ctx, "hash1", now)
	require.NoError(t, err)

	again, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash2", expires), now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, again.Status)
	assert.Nil(t, again.TokenHash)
	assert.Nil(t, again.TokenExpiresAt)
}

func TestUpsertPendingSubscriber_UnsubscribedFlipsToPending(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	_, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)
	require.NoError(t, err)
	require.NoError(t, repo.UnsubscribeSubscriber(ctx, "asha@example.com", now))

	back, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash2", expires), now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, back.Status)
	require.NotNil(t, back.TokenHash)
	assert.Equal(t, "hash2", *back.TokenHash)
}

func TestConfirmSubscriberByTokenHash(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	_, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)
	require.NoError(t, err)

	email, err := repo.ConfirmSubscriberByTokenHash(ctx, "hash1", now)

	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", email)

	sub, err := repo.GetSubscriberByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, sub.Status)
	assert.Nil(t, sub.TokenHash)
	assert.Nil(t, sub.TokenExpiresAt)
}

func TestConfirmSubscriberByTokenHash_ConsumedOnlyOnce(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expires := now.Add(24 * time.Hour).UTC()

	_, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expires), now)
	require.NoError(t, err)

	_, err = repo.ConfirmSubscriberByTokenHash(ctx, "hash1", now)
	require.NoError(t, err)

	_, err = repo.ConfirmSubscriberByTokenHash(ctx, "hash1", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConfirmSubscriberByTokenHash_ExpiredDoesNotMatch(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	expired := now.Add(-time.Hour).UTC()

	_, err := repo.UpsertPendingSubscriber(ctx, pendingSubscriber("asha@example.com", "hash1", expired), now)
	require.NoError(t, err)

	_, err = repo.ConfirmSubscriberByTokenHash(ctx, "hash1", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The record stays pending so the signup can be retried.
	sub, err := repo.GetSubscriberByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sub.Status)
}

func TestUnsubscribeSubscriber_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.UnsubscribeSubscriber(context.Background(), "nobody@example.com", time.Now())

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetSubscriberByTokenHash_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetSubscriberByTokenHash(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}
