// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/services/survey"
	"github.com/labstack/echo/v4"
)

// Survey handles POST /api/survey: rate-limit, validate the tagged form
// variant, persist the response with a confirmation token and send the
// opt-in email. A confirmed duplicate email is a conflict.
func (h *Handlers) Survey(c echo.Context) error {
	ctx := c.Request().Context()

	ok, err := h.checkRateLimit(c, "survey", h.limits.SurveyLimit)
	if !ok {
		return err
	}

	var in survey.Input
	if err := c.Bind(&in); err != nil {
		h.collector.RecordSubmission("survey", "invalid")
		return c.JSON(http.StatusBadRequest, Response{Message: i18n.T(ctx, "validation_body_invalid")})
	}

	result, err := h.surveys.Submit(ctx, in)
	if err != nil {
		var verr *survey.ValidationError
		switch {
		case errors.As(err, &verr):
			h.collector.RecordSubmission("survey", "invalid")
			return c.JSON(http.StatusBadRequest, Response{Message: verr.Message})
		case errors.Is(err, survey.ErrAlreadyRegistered):
			h.collector.RecordSubmission("survey", "conflict")
			return c.JSON(http.StatusConflict, Response{Message: i18n.T(ctx, "survey_already_registered")})
		default:
			slog.Error("survey submission failed", "error", err)
			h.collector.RecordSubmission("survey", "error")
			return c.JSON(http.StatusInternalServerError, Response{Message: i18n.T(ctx, "error_internal")})
		}
	}

	h.collector.RecordSubmission("survey", "ok")
	if result.EmailSent {
		h.collector.RecordEmailSent()
	} else {
		h.collector.RecordEmailFailed()
	}
	return c.JSON(http.StatusOK, Response{Message: i18n.T(ctx, "survey_check_email")})
}
