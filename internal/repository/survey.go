// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/glowbook/waitlist/internal/models"
)

// UpsertPendingSurveyResponse inserts or refreshes a survey response keyed
// by email, mirroring the subscriber upsert: pending and unsubscribed rows
// get the fresh token and answers, while a conflict with a confirmed row is
// a complete no-op so a resubmission can never erase confirmed answers.
// public_id is assigned on first insert and never replaced.
func (r *Repository) UpsertPendingSurveyResponse(ctx context.Context, resp *models.SurveyResponse, now time.Time) (*models.SurveyResponse, error) {
	var out models.SurveyResponse
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO survey_responses (
			public_id, email, first_name, last_name, user_type, status, token_hash, token_expires_at,
			visit_frequency, barber_services, makeup_occasions, important_factors, booking_frustrations,
			commission_preference, discount_interest, portfolio_interest, biggest_challenges, other_description,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			first_name = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.first_name ELSE excluded.first_name END,
			last_name = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.last_name ELSE excluded.last_name END,
			user_type = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.user_type ELSE excluded.user_type END,
			visit_frequency = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.visit_frequency ELSE excluded.visit_frequency END,
			barber_services = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.barber_services ELSE excluded.barber_services END,
			makeup_occasions = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.makeup_occasions ELSE excluded.makeup_occasions END,
			important_factors = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.important_factors ELSE excluded.important_factors END,
			booking_frustrations = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.booking_frustrations ELSE excluded.booking_frustrations END,
			commission_preference = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.commission_preference ELSE excluded.commission_preference END,
			discount_interest = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.discount_interest ELSE excluded.discount_interest END,
			portfolio_interest = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.portfolio_interest ELSE excluded.portfolio_interest END,
			biggest_challenges = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.biggest_challenges ELSE excluded.biggest_challenges END,
			other_description = CASE WHEN survey_responses.status = 'confirmed' THEN survey_responses.other_description ELSE excluded.other_description END,
			token_hash = CASE
				WHEN survey_responses.status = 'confirmed' THEN survey_responses.token_hash
				ELSE excluded.token_hash
			END,
			token_expires_at = CASE
				WHEN survey_responses.status = 'confirmed' THEN survey_responses.token_expires_at
				ELSE excluded.token_expires_at
			END,
			status = CASE
				WHEN survey_responses.status = 'unsubscribed' THEN 'pending'
				ELSE survey_responses.status
			END,
			updated_at = CASE
				WHEN survey_responses.status = 'confirmed' THEN survey_responses.updated_at
				ELSE excluded.updated_at
			END
		RETURNING *`,
		resp.PublicID, resp.Email, resp.FirstName, resp.LastName, resp.UserType,
		resp.TokenHash, resp.TokenExpiresAt,
		resp.VisitFrequency, resp.BarberServices, resp.MakeupOccasions, resp.ImportantFactors,
		resp.BookingFrustrations, resp.CommissionPreference, resp.DiscountInterest,
		resp.PortfolioInterest, resp.BiggestChallenges, resp.OtherDescription,
		now.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSurveyResponseByEmail retrieves a survey response by email.
func (r *Repository) GetSurveyResponseByEmail(ctx context.Context, email string) (*models.SurveyResponse, error) {
	var resp models.SurveyResponse
	err := r.db.GetContext(ctx, &resp, `SELECT * FROM survey_responses WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &resp, nil
}

// GetSurveyResponseByTokenHash retrieves a survey response holding the given
// token hash.
func (r *Repository) GetSurveyResponseByTokenHash(ctx context.Context, tokenHash string) (*models.SurveyResponse, error) {
	var resp models.SurveyResponse
	err := r.db.GetContext(ctx, &resp, `SELECT * FROM survey_responses WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &resp, nil
}

// ConfirmSurveyResponseByTokenHash flips a pending survey response to
// confirmed and clears the token in one statement, returning the email.
func (r *Repository) ConfirmSurveyResponseByTokenHash(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var email string
	err := r.db.GetContext(ctx, &email, `
		UPDATE survey_responses
		SET status = 'confirmed', token_hash = NULL, token_expires_at = NULL, updated_at = ?
		WHERE token_hash = ? AND status = 'pending' AND token_expires_at > ?
		RETURNING email`,
		now.UTC(), tokenHash, now.UTC())
	if err != nil {
		return "", wrapError(err)
	}
	return email, nil
}
