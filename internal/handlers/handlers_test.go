// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glowbook/waitlist/internal/clientip"
	"github.com/glowbook/waitlist/internal/config"
	"github.com/glowbook/waitlist/internal/handlers"
	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/metrics"
	"github.com/glowbook/waitlist/internal/pagemeta"
	"github.com/glowbook/waitlist/internal/ratelimit"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/glowbook/waitlist/internal/services/subscription"
	"github.com/glowbook/waitlist/internal/services/survey"
	"github.com/glowbook/waitlist/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

type testApp struct {
	handlers *handlers.Handlers
	db       *sqlx.DB
	repo     *repository.Repository
	sender   *testutil.FakeSender
	echo     *echo.Echo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	require.NoError(t, i18n.Init())

	db, repo := testutil.NewTestDB(t)
	sender := &testutil.FakeSender{}

	pages, err := pagemeta.Load("http://localhost:8000", "Glowbook")
	require.NoError(t, err)

	h := handlers.New(
		subscription.NewService(repo, sender),
		survey.NewService(repo, sender),
		sender,
		ratelimit.New(repo),
		clientip.NewResolver(nil),
		metrics.NewCollector(prometheus.NewRegistry()),
		pages,
		config.RateLimitConfig{WindowSeconds: 3600, SubscribeLimit: 5, ContactLimit: 5, SurveyLimit: 5},
	)

	return &testApp{handlers: h, db: db, repo: repo, sender: sender, echo: echo.New()}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handlers.Response {
	t.Helper()
	var resp handlers.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const subscribeBody = `{"email":"asha@example.com","name":"Asha Rao","addressCity":"Pune","addressState":"MH"}`

func TestSubscribeHandler(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "check your email")
	assert.Len(t, app.sender.Confirmations, 1)
}

func TestSubscribeHandler_ValidationError(t *testing.T) {
	app := newTestApp(t)

	body := `{"email":"not-an-email","name":"Asha","addressCity":"Pune","addressState":"MH"}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(body))
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "valid email")
}

func TestSubscribeHandler_RateLimited(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 5; i++ {
		c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
		c.Request().RemoteAddr = "203.0.113.7:1234"
		require.NoError(t, app.handlers.Subscribe(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	c.Request().RemoteAddr = "203.0.113.7:1234"
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Message, "Too many attempts")
	assert.Greater(t, resp.RetryAfter, 0)
}

func TestSubscribeHandler_RateLimitIsPerIP(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 6; i++ {
		c, _ := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
		c.Request().RemoteAddr = "203.0.113.7:1234"
		require.NoError(t, app.handlers.Subscribe(c))
	}

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	c.Request().RemoteAddr = "198.51.100.9:1234"
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubscribeHandler_EmailFailureStillOK(t *testing.T) {
	app := newTestApp(t)
	app.sender.Fail = true

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "Subscription saved")
}

func TestSubscribeHandler_StoreErrorIs500(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Close())

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "Subscription failed")
}

func TestSubscribeHandler_HindiLocale(t *testing.T) {
	app := newTestApp(t)

	headers := map[string]string{"Accept-Language": "hi"}
	c, rec := testutil.NewEchoContextWithHeaders(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody), headers)
	req := c.Request()
	c.SetRequest(req.WithContext(i18n.WithLocale(req.Context(), i18n.MatchLanguage("hi"))))
	require.NoError(t, app.handlers.Subscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeResponse(t, rec).Message, "check your email")
}

func TestConfirmHandler(t *testing.T) {
	app := newTestApp(t)

	c, _ := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	require.NoError(t, app.handlers.Subscribe(c))
	token := app.sender.LastConfirmation(t).Token

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/confirm?token="+token, nil)
	require.NoError(t, app.handlers.Confirm(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "successfully confirmed")
}

func TestConfirmHandler_MissingToken(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/confirm", nil)
	require.NoError(t, app.handlers.Confirm(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmHandler_UnknownToken(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/confirm?token=deadbeef", nil)
	require.NoError(t, app.handlers.Confirm(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmHandler_SurveyToken(t *testing.T) {
	app := newTestApp(t)

	body := `{"userType":"other","firstName":"Ravi","lastName":"Kumar","email":"ravi@example.com","otherDescription":"photographer"}`
	c, _ := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/survey", strings.NewReader(body))
	require.NoError(t, app.handlers.Survey(c))
	token := app.sender.LastConfirmation(t).Token

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/confirm?token="+token, nil)
	require.NoError(t, app.handlers.Confirm(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactHandler(t *testing.T) {
	app := newTestApp(t)

	body := `{"email":"asha@example.com","name":"Asha Rao","message":"When do you launch?"}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/contact", strings.NewReader(body))
	require.NoError(t, app.handlers.Contact(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, app.sender.Contacts, 1)
	assert.Equal(t, "asha@example.com", app.sender.Contacts[0].From)
}

func TestContactHandler_MissingFields(t *testing.T) {
	app := newTestApp(t)

	body := `{"email":"asha@example.com","name":"","message":"hi"}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/contact", strings.NewReader(body))
	require.NoError(t, app.handlers.Contact(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "Missing required fields")
}

func TestContactHandler_RelayFailureIs500(t *testing.T) {
	app := newTestApp(t)
	app.sender.Fail = true

	body := `{"email":"asha@example.com","name":"Asha","message":"hi"}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/contact", strings.NewReader(body))
	require.NoError(t, app.handlers.Contact(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSurveyHandler(t *testing.T) {
	app := newTestApp(t)

	body := `{"userType":"customer_barber","firstName":"Ravi","lastName":"Kumar","email":"ravi@example.com",` +
		`"visitFrequency":"monthly","barberServices":["haircut"],"importantFactors":["price"]}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/survey", strings.NewReader(body))
	require.NoError(t, app.handlers.Survey(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "confirm your spot")
}

func TestSurveyHandler_ValidationError(t *testing.T) {
	app := newTestApp(t)

	body := `{"userType":"customer_barber","firstName":"Ravi","lastName":"Kumar","email":"ravi@example.com"}`
	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/survey", strings.NewReader(body))
	require.NoError(t, app.handlers.Survey(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSurveyHandler_Conflict(t *testing.T) {
	app := newTestApp(t)

	body := `{"userType":"other","firstName":"Ravi","lastName":"Kumar","email":"ravi@example.com","otherDescription":"photographer"}`
	c, _ := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/survey", strings.NewReader(body))
	require.NoError(t, app.handlers.Survey(c))
	token := app.sender.LastConfirmation(t).Token

	c, _ = testutil.NewEchoContext(app.echo, http.MethodGet, "/api/confirm?token="+token, nil)
	require.NoError(t, app.handlers.Confirm(c))

	c, rec := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/survey", strings.NewReader(body))
	require.NoError(t, app.handlers.Survey(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "already registered")
}

func TestUnsubscribeHandler(t *testing.T) {
	app := newTestApp(t)

	c, _ := testutil.NewEchoContext(app.echo, http.MethodPost, "/api/subscribe", strings.NewReader(subscribeBody))
	require.NoError(t, app.handlers.Subscribe(c))

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/unsubscribe?email=asha@example.com", nil)
	require.NoError(t, app.handlers.Unsubscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Message, "unsubscribed")
}

func TestUnsubscribeHandler_NotFound(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/unsubscribe?email=nobody@example.com", nil)
	require.NoError(t, app.handlers.Unsubscribe(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageMetaHandler(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/pages/home", nil)
	c.SetParamNames("name")
	c.SetParamValues("home")
	require.NoError(t, app.handlers.PageMeta(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var page pagemeta.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "http://localhost:8000/", page.URL)
	assert.NotEmpty(t, page.Title)
}

func TestPageMetaHandler_Unknown(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/api/pages/nope", nil)
	c.SetParamNames("name")
	c.SetParamValues("nope")
	require.NoError(t, app.handlers.PageMeta(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t)

	c, rec := testutil.NewEchoContext(app.echo, http.MethodGet, "/health", nil)
	require.NoError(t, app.handlers.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
