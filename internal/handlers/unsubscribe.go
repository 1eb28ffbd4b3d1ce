// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/labstack/echo/v4"
)

// Unsubscribe handles GET /api/unsubscribe?email=...: flip the subscriber
// to unsubscribed and clear any outstanding token. A later signup for the
// same email goes back to pending with a fresh token.
func (h *Handlers) Unsubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	address := c.QueryParam("email")
	if address == "" {
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_email_required")})
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_email_invalid")})
	}

	if err := h.subscriptions.Unsubscribe(ctx, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, Response{Message: i18n.T(ctx, "unsubscribe_not_found")})
		}
		slog.Error("unsubscribe failed", "error", err)
		return c.JSON(http.StatusInternalServerError, Response{Message: i18n.T(ctx, "error_database")})
	}

	return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "unsubscribe_done")})
}
