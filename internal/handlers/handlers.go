// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers for the waitlist API.
package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/glowbook/waitlist/internal/clientip"
	"github.com/glowbook/waitlist/internal/config"
	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/metrics"
	"github.com/glowbook/waitlist/internal/pagemeta"
	"github.com/glowbook/waitlist/internal/ratelimit"
	"github.com/glowbook/waitlist/internal/services/email"
	"github.com/glowbook/waitlist/internal/services/subscription"
	"github.com/glowbook/waitlist/internal/services/survey"
	"github.com/labstack/echo/v4"
)

// Response is the JSON body of every API reply. RetryAfter is only set on
// throttled responses.
type Response struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	subscriptions *subscription.Service
	surveys       *survey.Service
	sender        email.Sender
	limiter       *ratelimit.Limiter
	resolver      *clientip.Resolver
	collector     *metrics.Collector
	pages         *pagemeta.Catalog
	limits        config.RateLimitConfig
}

// New creates a new Handlers instance.
func New(
	subscriptions *subscription.Service,
	surveys *survey.Service,
	sender email.Sender,
	limiter *ratelimit.Limiter,
	resolver *clientip.Resolver,
	collector *metrics.Collector,
	pages *pagemeta.Catalog,
	limits config.RateLimitConfig,
) *Handlers {
	return &Handlers{
		subscriptions: subscriptions,
		surveys:       surveys,
		sender:        sender,
		limiter:       limiter,
		resolver:      resolver,
		collector:     collector,
		pages:         pages,
		limits:        limits,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// checkRateLimit consults the shared counter store for the endpoint and the
// request's client address. It returns false after writing the 429 response
// when the request is over the limit.
func (h *Handlers) checkRateLimit(c echo.Context, endpoint string, limit int) (bool, error) {
	ip := h.resolver.FromRequest(c.Request())
	key := ratelimit.Key(endpoint, ip)
	window := time.Duration(h.limits.WindowSeconds) * time.Second

	decision := h.limiter.Check(c.Request().Context(), key, window, limit)
	if decision.Allowed {
		return true, nil
	}

	h.collector.RecordRateLimitDenial(endpoint)

	retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
	minutes := int(math.Ceil(float64(retryAfter) / 60))
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	return false, c.JSON(http.StatusTooManyRequests, Response{
		Message:    i18n.TData(c.Request().Context(), "rate_limited", map[string]any{"Minutes": minutes}),
		RetryAfter: retryAfter,
	})
}
