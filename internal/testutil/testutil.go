// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glowbook/waitlist/internal/database"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// SentConfirmation records one SendConfirmation call.
type SentConfirmation struct {
	To    string
	Name  string
	Token string
}

// SentContact records one SendContact call.
type SentContact struct {
	From    string
	Name    string
	Message string
}

// FakeSender is an in-memory email.Sender that records every call. Set Fail
// to make all sends return an error.
type FakeSender struct {
	mu            sync.Mutex
	Fail          bool
	Confirmations []SentConfirmation
	Contacts      []SentContact
}

func (f *FakeSender) SendConfirmation(_ context.Context, toEmail, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return errors.New("smtp unavailable")
	}
	f.Confirmations = append(f.Confirmations, SentConfirmation{To: toEmail, Name: name, Token: token})
	return nil
}

func (f *FakeSender) SendContact(_ context.Context, fromEmail, name, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return errors.New("smtp unavailable")
	}
	f.Contacts = append(f.Contacts, SentContact{From: fromEmail, Name: name, Message: message})
	return nil
}

// LastConfirmation returns the most recent confirmation email, failing the
// test when none was sent.
func (f *FakeSender) LastConfirmation(t *testing.T) SentConfirmation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.Confirmations)
	return f.Confirmations[len(f.Confirmations)-1]
}
