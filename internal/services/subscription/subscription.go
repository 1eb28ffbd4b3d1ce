// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package subscription implements the double-opt-in workflow for waitlist
// signups: issue a confirmation token, email the link, and consume the
// token exactly once.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"github.com/glowbook/waitlist/internal/models"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/glowbook/waitlist/internal/sanitize"
	"github.com/glowbook/waitlist/internal/services/email"
	"github.com/glowbook/waitlist/internal/token"
)

// TokenExpiry is how long confirmation tokens are valid.
const TokenExpiry = 24 * time.Hour

var (
	// ErrTokenNotFound is returned when no pending record holds the token,
	// including tokens that were already consumed.
	ErrTokenNotFound = errors.New("confirmation token not found")
	// ErrTokenExpired is returned when the token exists but its expiry has
	// passed. The record stays pending.
	ErrTokenExpired = errors.New("confirmation token expired")
)

// ValidationError reports the first offending input field.
type ValidationError struct {
	Field     string
	MessageID string // i18n message id for the user-facing text
}

func (e *ValidationError) Error() string {
	return "invalid field: " + e.Field
}

// Store is the persistence the workflow needs.
type Store interface {
	UpsertPendingSubscriber(ctx context.Context, sub *models.Subscriber, now time.Time) (*models.Subscriber, error)
	GetSubscriberByTokenHash(ctx context.Context, tokenHash string) (*models.Subscriber, error)
	ConfirmSubscriberByTokenHash(ctx context.Context, tokenHash string, now time.Time) (string, error)
	UnsubscribeSubscriber(ctx context.Context, email string, now time.Time) error
}

// SubscribeInput is a waitlist signup before sanitization.
type SubscribeInput struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	AddressCity  string `json:"addressCity"`
	AddressState string `json:"addressState"`
	Message      string `json:"message,omitempty"`
}

// SubscribeResult reports the outcome of a Subscribe call. EmailSent is
// false either because the subscriber was already confirmed (no token was
// issued) or because dispatch failed after the record was persisted.
type SubscribeResult struct {
	Subscriber       *models.Subscriber
	AlreadyConfirmed bool
	EmailSent        bool
}

// Service owns the subscriber confirmation state machine.
type Service struct {
	store  Store
	sender email.Sender
	now    func() time.Time
}

// NewService creates a subscription service.
func NewService(store Store, sender email.Sender) *Service {
	return &Service{store: store, sender: sender, now: time.Now}
}

// NewServiceWithClock creates a subscription service with an injected clock.
func NewServiceWithClock(store Store, sender email.Sender, now func() time.Time) *Service {
	return &Service{store: store, sender: sender, now: now}
}

// Subscribe validates and persists a signup, issuing a fresh confirmation
// token unless the email is already confirmed. The token email is sent
// after the row is durably written; a dispatch failure is logged and
// swallowed so a recorded signup is never reported as failed.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	in.Name = sanitize.Strip(in.Name)
	in.Phone = sanitize.Strip(in.Phone)
	in.AddressCity = sanitize.Strip(in.AddressCity)
	in.AddressState = sanitize.Strip(in.AddressState)
	in.Message = sanitize.Strip(in.Message)

	if err := validateSubscribe(in); err != nil {
		return nil, err
	}

	plaintext, hash, err := token.Generate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(TokenExpiry).UTC()

	sub := &models.Subscriber{
		Email:          in.Email,
		TokenHash:      &hash,
		TokenExpiresAt: &expiresAt,
		Name:           in.Name,
		Phone:          optional(in.Phone),
		AddressCity:    in.AddressCity,
		AddressState:   in.AddressState,
		Message:        optional(in.Message),
	}

	stored, err := s.store.UpsertPendingSubscriber(ctx, sub, now)
	if err != nil {
		return nil, err
	}

	if stored.Status == models.StatusConfirmed {
		return &SubscribeResult{Subscriber: stored, AlreadyConfirmed: true}, nil
	}

	result := &SubscribeResult{Subscriber: stored, EmailSent: true}
	if err := s.sender.SendConfirmation(ctx, stored.Email, stored.Name, plaintext); err != nil {
		slog.Error("confirmation email dispatch failed", "email", stored.Email, "error", err)
		result.EmailSent = false
	}
	return result, nil
}

// Confirm consumes a confirmation token and returns the confirmed email.
// The flip-and-clear happens in one statement, so a replayed token yields
// ErrTokenNotFound and an expired one ErrTokenExpired without flipping
// status.
func (s *Service) Confirm(ctx context.Context, plaintext string) (string, error) {
	now := s.now()
	hash := token.Hash(plaintext)

	confirmed, err := s.store.ConfirmSubscriberByTokenHash(ctx, hash, now)
	if err == nil {
		return confirmed, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	// No row matched: distinguish expired from unknown or consumed.
	sub, lookupErr := s.store.GetSubscriberByTokenHash(ctx, hash)
	if lookupErr != nil {
		if errors.Is(lookupErr, repository.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", lookupErr
	}
	if sub.TokenExpiresAt != nil && now.After(*sub.TokenExpiresAt) {
		return "", ErrTokenExpired
	}
	return "", ErrTokenNotFound
}

// Unsubscribe marks the email unsubscribed. A later Subscribe flips it back
// to pending with a new token.
func (s *Service) Unsubscribe(ctx context.Context, address string) error {
	return s.store.UnsubscribeSubscriber(ctx, address, s.now())
}

func validateSubscribe(in SubscribeInput) error {
	if in.Email == "" {
		return &ValidationError{Field: "email", MessageID: "validation_email_required"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", MessageID: "validation_email_invalid"}
	}
	if in.Name == "" {
		return &ValidationError{Field: "name", MessageID: "validation_name_city_state"}
	}
	if in.AddressCity == "" {
		return &ValidationError{Field: "addressCity", MessageID: "validation_name_city_state"}
	}
	if in.AddressState == "" {
		return &ValidationError{Field: "addressState", MessageID: "validation_name_city_state"}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
