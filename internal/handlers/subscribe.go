// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/services/subscription"
	"github.com/labstack/echo/v4"
)

// Subscribe handles POST /api/subscribe: rate-limit, validate, persist a
// pending subscriber with a confirmation token and send the opt-in email.
// The response is success-shaped even when email dispatch failed, because
// the signup itself is already durable.
func (h *Handlers) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	ok, err := h.checkRateLimit(c, "subscribe", h.limits.SubscribeLimit)
	if !ok {
		return err
	}

	var in subscription.SubscribeInput
	if err := c.Bind(&in); err != nil {
		h.collector.RecordSubmission("subscribe", "invalid")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_body_invalid")})
	}

	result, err := h.subscriptions.Subscribe(ctx, in)
	if err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			h.collector.RecordSubmission("subscribe", "invalid")
			return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, verr.MessageID)})
		}
		slog.Error("subscribe failed", "error", err)
		h.collector.RecordSubmission("subscribe", "error")
		return c.JSON(http.StatusInternalServerError, Response{Message: i18n.T(ctx, "subscribe_failed")})
	}

	if result.AlreadyConfirmed {
		h.collector.RecordSubmission("subscribe", "already_confirmed")
		return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "subscribe_already_confirmed")})
	}

	h.collector.RecordSubmission("subscribe", "ok")
	if result.EmailSent {
		h.collector.RecordEmailSent()
		return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "subscribe_check_email")})
	}
	h.collector.RecordEmailFailed()
	return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "subscribe_saved_email_pending")})
}
