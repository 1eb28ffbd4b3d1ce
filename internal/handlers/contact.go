// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/sanitize"
	"github.com/labstack/echo/v4"
)

// ContactInput is the body of a contact form submission.
type ContactInput struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Contact handles POST /api/contact: rate-limit, validate and relay the
// message to the configured inbox. Unlike subscribe, a transport failure
// here is a 500 since nothing was persisted.
func (h *Handlers) Contact(c echo.Context) error {
	ctx := c.Request().Context()

	ok, err := h.checkRateLimit(c, "contact", h.limits.ContactLimit)
	if !ok {
		return err
	}

	var in ContactInput
	if err := c.Bind(&in); err != nil {
		h.collector.RecordSubmission("contact", "invalid")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_body_invalid")})
	}

	in.Name = sanitize.Strip(in.Name)
	in.Message = sanitize.Strip(in.Message)

	if in.Email == "" || in.Name == "" || in.Message == "" {
		h.collector.RecordSubmission("contact", "invalid")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_missing_fields")})
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		h.collector.RecordSubmission("contact", "invalid")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_email_invalid")})
	}

	if err := h.sender.SendContact(ctx, in.Email, in.Name, in.Message); err != nil {
		slog.Error("contact relay failed", "error", err)
		h.collector.RecordSubmission("contact", "error")
		h.collector.RecordEmailFailed()
		return c.JSON(http.StatusInternalServerError, Response{Message: i18n.T(ctx, "contact_failed")})
	}

	h.collector.RecordSubmission("contact", "ok")
	h.collector.RecordEmailSent()
	return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "contact_sent")})
}
