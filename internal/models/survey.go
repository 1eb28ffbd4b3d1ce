// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Survey user types, the discriminator of the survey form variants.
const (
	UserTypeCustomerBarber = "customer_barber"
	UserTypeCustomerMakeup = "customer_makeup"
	UserTypeOwnerBarber    = "owner_barber"
	UserTypeOwnerMakeup    = "owner_makeup"
	UserTypeOther          = "other"
)

// UserTypes lists every valid survey variant.
func UserTypes() []string {
	return []string{
		UserTypeCustomerBarber,
		UserTypeCustomerMakeup,
		UserTypeOwnerBarber,
		UserTypeOwnerMakeup,
		UserTypeOther,
	}
}

// SurveyResponse is one survey submission. Variant-specific answers are
// nullable; multi-select answers are stored JSON-encoded. The token fields
// follow the same pending-only invariant as Subscriber.
type SurveyResponse struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64      `db:"id" json:"id"`
	PublicID       string     `db:"public_id" json:"public_id"`
	Email          string     `db:"email" json:"email"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	UserType       string     `db:"user_type" json:"user_type"`
	Status         string     `db:"status" json:"status"`
	TokenHash      *string    `db:"token_hash" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"-"`

	VisitFrequency       *string `db:"visit_frequency" json:"visit_frequency,omitempty"`
	BarberServices       *string `db:"barber_services" json:"barber_services,omitempty"`
	MakeupOccasions      *string `db:"makeup_occasions" json:"makeup_occasions,omitempty"`
	ImportantFactors     *string `db:"important_factors" json:"important_factors,omitempty"`
	BookingFrustrations  *string `db:"booking_frustrations" json:"booking_frustrations,omitempty"`
	CommissionPreference *string `db:"commission_preference" json:"commission_preference,omitempty"`
	DiscountInterest     *string `db:"discount_interest" json:"discount_interest,omitempty"`
	PortfolioInterest    *string `db:"portfolio_interest" json:"portfolio_interest,omitempty"`
	BiggestChallenges    *string `db:"biggest_challenges" json:"biggest_challenges,omitempty"`
	OtherDescription     *string `db:"other_description" json:"other_description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
