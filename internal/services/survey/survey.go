// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package survey implements the multi-variant waitlist survey. The form is
// a tagged union keyed by userType; each variant is validated exhaustively
// before the response is persisted with a confirmation token.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/glowbook/waitlist/internal/models"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/glowbook/waitlist/internal/sanitize"
	"github.com/glowbook/waitlist/internal/services/email"
	"github.com/glowbook/waitlist/internal/token"
	"github.com/google/uuid"
)

// TokenExpiry is how long survey confirmation tokens are valid.
const TokenExpiry = 24 * time.Hour

var (
	// ErrAlreadyRegistered is returned when the email already belongs to a
	// confirmed survey response.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrTokenNotFound is returned when no pending response holds the
	// token, including tokens that were already consumed.
	ErrTokenNotFound = errors.New("confirmation token not found")
	// ErrTokenExpired is returned when the token exists but its expiry has
	// passed. The response stays pending.
	ErrTokenExpired = errors.New("confirmation token expired")
)

// ValidationError reports the first offending input field with a
// human-readable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store is the persistence the survey workflow needs.
type Store interface {
	UpsertPendingSurveyResponse(ctx context.Context, resp *models.SurveyResponse, now time.Time) (*models.SurveyResponse, error)
	GetSurveyResponseByTokenHash(ctx context.Context, tokenHash string) (*models.SurveyResponse, error)
	ConfirmSurveyResponseByTokenHash(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// Input is one survey submission. Which fields are required depends on
// UserType.
type Input struct {
	UserType  string `json:"userType"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`

	VisitFrequency       string   `json:"visitFrequency,omitempty"`
	BarberServices       []string `json:"barberServices,omitempty"`
	MakeupOccasions      []string `json:"makeupOccasions,omitempty"`
	ImportantFactors     []string `json:"importantFactors,omitempty"`
	BookingFrustrations  string   `json:"bookingFrustrations,omitempty"`
	CommissionPreference string   `json:"commissionPreference,omitempty"`
	OfferDiscounts       string   `json:"offerDiscounts,omitempty"`
	PortfolioInterest    string   `json:"portfolioInterest,omitempty"`
	BiggestChallenges    string   `json:"biggestChallenges,omitempty"`
	OtherDescription     string   `json:"otherDescription,omitempty"`
}

// Result reports the outcome of a Submit call.
type Result struct {
	Response  *models.SurveyResponse
	EmailSent bool
}

// Service owns the survey submission workflow.
type Service struct {
	store  Store
	sender email.Sender
	now    func() time.Time
}

// NewService creates a survey service.
func NewService(store Store, sender email.Sender) *Service {
	return &Service{store: store, sender: sender, now: time.Now}
}

// NewServiceWithClock creates a survey service with an injected clock.
func NewServiceWithClock(store Store, sender email.Sender, now func() time.Time) *Service {
	return &Service{store: store, sender: sender, now: now}
}

// Submit validates the variant, persists the response with a fresh
// confirmation token and sends the confirmation email. Duplicate emails are
// resolved by the upsert alone: a pending response gets the new token, a
// confirmed one is reported as ErrAlreadyRegistered. Email dispatch failure
// is logged and swallowed.
func (s *Service) Submit(ctx context.Context, in Input) (*Result, error) {
	in = sanitizeInput(in)

	if err := validate(in); err != nil {
		return nil, err
	}

	plaintext, hash, err := token.Generate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(TokenExpiry).UTC()

	resp, err := buildResponse(in)
	if err != nil {
		return nil, err
	}
	resp.PublicID = uuid.NewString()
	resp.TokenHash = &hash
	resp.TokenExpiresAt = &expiresAt

	stored, err := s.store.UpsertPendingSurveyResponse(ctx, resp, now)
	if err != nil {
		return nil, err
	}

	if stored.Status == models.StatusConfirmed {
		return nil, ErrAlreadyRegistered
	}

	result := &Result{Response: stored, EmailSent: true}
	if err := s.sender.SendConfirmation(ctx, stored.Email, stored.FirstName, plaintext); err != nil {
		slog.Error("survey confirmation email dispatch failed", "email", stored.Email, "error", err)
		result.EmailSent = false
	}
	return result, nil
}

// Confirm consumes a survey confirmation token and returns the confirmed
// email. Semantics mirror the subscriber confirmation: consume exactly
// once, classify a miss as expired or not found.
func (s *Service) Confirm(ctx context.Context, plaintext string) (string, error) {
	now := s.now()
	hash := token.Hash(plaintext)

	confirmed, err := s.store.ConfirmSurveyResponseByTokenHash(ctx, hash, now)
	if err == nil {
		return confirmed, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	resp, lookupErr := s.store.GetSurveyResponseByTokenHash(ctx, hash)
	if lookupErr != nil {
		if errors.Is(lookupErr, repository.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", lookupErr
	}
	if resp.TokenExpiresAt != nil && now.After(*resp.TokenExpiresAt) {
		return "", ErrTokenExpired
	}
	return "", ErrTokenNotFound
}

func sanitizeInput(in Input) Input {
	in.FirstName = sanitize.Strip(in.FirstName)
	in.LastName = sanitize.Strip(in.LastName)
	in.VisitFrequency = sanitize.Strip(in.VisitFrequency)
	in.BarberServices = sanitize.StripAll(in.BarberServices)
	in.MakeupOccasions = sanitize.StripAll(in.MakeupOccasions)
	in.ImportantFactors = sanitize.StripAll(in.ImportantFactors)
	in.BookingFrustrations = sanitize.Strip(in.BookingFrustrations)
	in.CommissionPreference = sanitize.Strip(in.CommissionPreference)
	in.OfferDiscounts = sanitize.Strip(in.OfferDiscounts)
	in.PortfolioInterest = sanitize.Strip(in.PortfolioInterest)
	in.BiggestChallenges = sanitize.Strip(in.BiggestChallenges)
	in.OtherDescription = sanitize.Strip(in.OtherDescription)
	return in
}

// validate checks the base fields and then the variant fields, returning
// the first offending field. The switch over userType is exhaustive.
func validate(in Input) error {
	if in.FirstName == "" {
		return &ValidationError{Field: "firstName", Message: "First name is required."}
	}
	if in.LastName == "" {
		return &ValidationError{Field: "lastName", Message: "Last name is required."}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email", Message: "A valid email is required."}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", Message: "A valid email is required."}
	}

	switch in.UserType {
	case models.UserTypeCustomerBarber:
		if in.VisitFrequency == "" {
			return &ValidationError{Field: "visitFrequency", Message: "Please select your visit frequency."}
		}
		if len(in.BarberServices) == 0 {
			return &ValidationError{Field: "barberServices", Message: "Please select at least one service."}
		}
		if len(in.ImportantFactors) == 0 {
			return &ValidationError{Field: "importantFactors", Message: "Please select at least one factor."}
		}
	case models.UserTypeCustomerMakeup:
		if len(in.MakeupOccasions) == 0 {
			return &ValidationError{Field: "makeupOccasions", Message: "Please select at least one occasion."}
		}
		if len(in.ImportantFactors) == 0 {
			return &ValidationError{Field: "importantFactors", Message: "Please select at least one factor."}
		}
	case models.UserTypeOwnerBarber:
		if in.CommissionPreference == "" {
			return &ValidationError{Field: "commissionPreference", Message: "Please select your commission preference."}
		}
		if in.OfferDiscounts == "" {
			return &ValidationError{Field: "offerDiscounts", Message: "Please indicate your interest in discounts."}
		}
	case models.UserTypeOwnerMakeup:
		if in.CommissionPreference == "" {
			return &ValidationError{Field: "commissionPreference", Message: "Please select your commission preference."}
		}
		if in.PortfolioInterest == "" {
			return &ValidationError{Field: "portfolioInterest", Message: "Please indicate your interest in portfolio features."}
		}
	case models.UserTypeOther:
		if in.OtherDescription == "" {
			return &ValidationError{Field: "otherDescription", Message: "Please specify your role."}
		}
	default:
		return &ValidationError{Field: "userType", Message: "Please select who you are."}
	}
	return nil
}

// buildResponse maps the validated variant onto the persistence row. Only
// the columns of the matched variant are populated.
func buildResponse(in Input) (*models.SurveyResponse, error) {
	resp := &models.SurveyResponse{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		UserType:  in.UserType,
	}

	switch in.UserType {
	case models.UserTypeCustomerBarber:
		services, err := encodeList(in.BarberServices)
		if err != nil {
			return nil, err
		}
		factors, err := encodeList(in.ImportantFactors)
		if err != nil {
			return nil, err
		}
		resp.VisitFrequency = optional(in.VisitFrequency)
		resp.BarberServices = services
		resp.ImportantFactors = factors
		resp.BookingFrustrations = optional(in.BookingFrustrations)
	case models.UserTypeCustomerMakeup:
		occasions, err := encodeList(in.MakeupOccasions)
		if err != nil {
			return nil, err
		}
		factors, err := encodeList(in.ImportantFactors)
		if err != nil {
			return nil, err
		}
		resp.MakeupOccasions = occasions
		resp.ImportantFactors = factors
		resp.BookingFrustrations = optional(in.BookingFrustrations)
	case models.UserTypeOwnerBarber:
		resp.CommissionPreference = optional(in.CommissionPreference)
		resp.DiscountInterest = optional(in.OfferDiscounts)
		resp.BiggestChallenges = optional(in.BiggestChallenges)
	case models.UserTypeOwnerMakeup:
		resp.CommissionPreference = optional(in.CommissionPreference)
		resp.PortfolioInterest = optional(in.PortfolioInterest)
		resp.BiggestChallenges = optional(in.BiggestChallenges)
	case models.UserTypeOther:
		resp.OtherDescription = optional(in.OtherDescription)
	default:
		return nil, fmt.Errorf("unhandled user type %q", in.UserType)
	}

	return resp, nil
}

func encodeList(values []string) (*string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
