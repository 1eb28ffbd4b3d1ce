// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/glowbook/waitlist/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordSubmission("subscribe", "ok")
	c.RecordSubmission("subscribe", "ok")
	c.RecordSubmission("subscribe", "invalid")
	c.RecordRateLimitDenial("contact")
	c.RecordConfirmation("expired")
	c.RecordEmailSent()
	c.RecordEmailFailed()

	families, err := reg.Gather()
	assert.NoError(t, err)

	byName := map[string]int{}
	for _, f := range families {
		byName[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, 2, byName["waitlist_submissions_total"]) // two outcome labels
	assert.Equal(t, 1, byName["waitlist_rate_limit_denials_total"])
	assert.Equal(t, 1, byName["waitlist_confirmations_total"])
	assert.Equal(t, 1, byName["waitlist_emails_sent_total"])
	assert.Equal(t, 1, byName["waitlist_emails_failed_total"])
}

func TestCollector_ScrapeOutput(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordSubmission("survey", "conflict")
	c.RecordEmailSent()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	metrics.Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `waitlist_submissions_total{endpoint="survey",outcome="conflict"} 1`)
	assert.Contains(t, body, "waitlist_emails_sent_total 1")
}
