// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics collects and exposes Prometheus metrics for the
// submission endpoints.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records waitlist metrics on a Prometheus registry.
type Collector struct {
	submissions      *prometheus.CounterVec
	rateLimitDenials *prometheus.CounterVec
	confirmations    *prometheus.CounterVec
	emailsSent       prometheus.Counter
	emailsFailed     prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Form submissions by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		rateLimitDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_rate_limit_denials_total",
			Help: "Requests denied by the rate limiter, by endpoint.",
		}, []string{"endpoint"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_confirmations_total",
			Help: "Confirmation link outcomes.",
		}, []string{"outcome"}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_emails_sent_total",
			Help: "Emails handed to the SMTP transport successfully.",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_emails_failed_total",
			Help: "Emails the SMTP transport failed to deliver.",
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.rateLimitDenials,
		c.confirmations,
		c.emailsSent,
		c.emailsFailed,
	)

	return c
}

// RecordSubmission records one submission outcome for an endpoint.
func (c *Collector) RecordSubmission(endpoint, outcome string) {
	c.submissions.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRateLimitDenial records a denied request for an endpoint.
func (c *Collector) RecordRateLimitDenial(endpoint string) {
	c.rateLimitDenials.WithLabelValues(endpoint).Inc()
}

// RecordConfirmation records a confirmation outcome.
func (c *Collector) RecordConfirmation(outcome string) {
	c.confirmations.WithLabelValues(outcome).Inc()
}

// RecordEmailSent records a successfully dispatched email.
func (c *Collector) RecordEmailSent() {
	c.emailsSent.Inc()
}

// RecordEmailFailed records a failed email dispatch.
func (c *Collector) RecordEmailFailed() {
	c.emailsFailed.Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
