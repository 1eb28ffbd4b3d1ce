// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/services/subscription"
	"github.com/glowbook/waitlist/internal/services/survey"
	"github.com/labstack/echo/v4"
)

// Confirm handles GET /api/confirm?token=...: consume the token and flip
// the matching record to confirmed. Subscribers and survey responses share
// the confirmation link format, so an unknown subscriber token is retried
// against the survey workflow before reporting not-found.
func (h *Handlers) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	plaintext := c.QueryParam("token")
	if plaintext == "" {
		slog.Warn("confirmation attempt with missing token")
		h.collector.RecordConfirmation("missing_token")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "confirm_token_missing")})
	}

	confirmed, err := h.subscriptions.Confirm(ctx, plaintext)
	if errors.Is(err, subscription.ErrTokenNotFound) {
		confirmed, err = h.surveys.Confirm(ctx, plaintext)
		if errors.Is(err, survey.ErrTokenNotFound) {
			slog.Warn("invalid or already used confirmation token")
			h.collector.RecordConfirmation("not_found")
			return c.JSON(http.StatusNotFound, Response{Message: i18n.T(ctx, "confirm_token_invalid")})
		}
		if errors.Is(err, survey.ErrTokenExpired) {
			h.collector.RecordConfirmation("expired")
			return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "confirm_token_expired")})
		}
	}
	if errors.Is(err, subscription.ErrTokenExpired) {
		h.collector.RecordConfirmation("expired")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "confirm_token_expired")})
	}
	if err != nil {
		slog.Error("confirmation failed", "error", err)
		h.collector.RecordConfirmation("error")
		return c.JSON(http.StatusInternalServerError, Response{Message: i18n.T(ctx, "confirm_failed")})
	}

	slog.Info("subscription confirmed", "email", confirmed)
	h.collector.RecordConfirmation("ok")
	return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "confirm_success")})
}
