package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "RateWatch/internal/domain/models"
	mid "RateWatch/internal/middleware"
	"RateWatch/internal/service/auth"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/service/ratelimit"
	"RateWatch/internal/usecase"
	applogger "RateWatch/pkg/logger"
)

type stubSource struct {
	obs *models.RateObservation
}

func (s *stubSource) FetchMarketRate(context.Context) (*models.RateObservation, error) {
	return s.obs, nil
}

type stubRateStore struct {
	latest    *models.RateObservation
	upserts   int
	healthErr error
}

func (s *stubRateStore) Upsert(context.Context, *models.RateObservation) error {
	s.upserts++
	return nil
}

func (s *stubRateStore) Latest(context.Context, int) (*models.RateObservation, error) {
	return s.latest, nil
}

func (s *stubRateStore) History(context.Context, int, int) ([]models.RateObservation, error) {
	return nil, nil
}

func (s *stubRateStore) Health(context.Context) error { return s.healthErr }

type stubClientStore struct {
	clients []models.Client
}

func (s *stubClientStore) ClientsByBroker(context.Context, string) ([]models.Client, error) {
	return s.clients, nil
}

func (s *stubClientStore) ClientByID(_ context.Context, brokerID, clientID string) (*models.Client, error) {
	for i := range s.clients {
		if s.clients[i].ID == clientID && s.clients[i].BrokerID == brokerID {
			return &s.clients[i], nil
		}
	}
	return nil, models.ErrClientNotFound
}

type stubNoteStore struct{ created int }

func (s *stubNoteStore) Create(context.Context, *models.Notification) error {
	s.created++
	return nil
}

type noopPub struct{}

func (noopPub) PublishObservation(context.Context, *models.RateObservation) error { return nil }
func (noopPub) PublishNotification(context.Context, *models.Notification) error   { return nil }
func (noopPub) Close() error                                                      { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordFetchCycle(string)        {}
func (noopMetrics) RecordFetchError(string)        {}
func (noopMetrics) RecordMarketRate(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)  {}
func (noopMetrics) RecordNotification(string)      {}

const testServiceToken = "svc-secret"

func brokerToken(t *testing.T, brokerID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": brokerID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func newTestHandler(t *testing.T, rates *stubRateStore, clients *stubClientStore) (*RatesEchoHandler, *stubNoteStore) {
	t.Helper()
	l := applogger.Nop()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	c := icache.NewTTLCache()
	hub := mid.NewRateHub(l)
	notes := &stubNoteStore{}

	ing := usecase.NewRateIngestor(
		&stubSource{obs: &models.RateObservation{ObservedDate: "2025-03-10", RateType: "fixed", RateValue: 6.25, TermYears: 30}},
		rates, noopPub{}, c, hub, ratelimit.New(0), noopMetrics{}, l, time.Minute,
	)
	sched := usecase.NewScheduler(ing, loc, 8, 18, time.Hour, l)
	sched.SetClock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, loc) })

	portfolio := usecase.NewPortfolioAnalytics(clients, rates, c, time.Minute, 30, noopMetrics{}, l)
	alerts := usecase.NewAlertDispatcher(clients, rates, notes, noopPub{}, noopMetrics{}, l, 30)
	verifier := auth.NewVerifier(testServiceToken, "jwt-secret", "")

	return NewRatesEchoHandler(l, verifier, sched, portfolio, alerts, rates, c, hub), notes
}

func doRequest(h *RatesEchoHandler, method, target, authHeader, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelopeStatus(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var env struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Status
}

func TestScheduledRun(t *testing.T) {
	rates := &stubRateStore{}
	h, _ := newTestHandler(t, rates, &stubClientStore{})

	t.Run("missing credential", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/scheduled/run", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, envelopeStatus(t, rec))
		assert.Equal(t, 0, rates.upserts)
	})

	t.Run("wrong credential", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/scheduled/run", "Bearer nope", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, envelopeStatus(t, rec))
	})

	t.Run("valid credential runs the cycle", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/scheduled/run", "Bearer "+testServiceToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, envelopeStatus(t, rec))
		assert.Equal(t, 1, rates.upserts)
		assert.Contains(t, rec.Body.String(), `"ran":true`)
	})
}

func TestLatestRate(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRateStore{}, &stubClientStore{})
		rec := doRequest(h, http.MethodGet, "/api/rates/latest", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, http.StatusNotFound, envelopeStatus(t, rec))
	})

	t.Run("stored observation", func(t *testing.T) {
		rates := &stubRateStore{latest: &models.RateObservation{
			ObservedDate: "2025-03-10", RateType: "fixed", RateValue: 6.25, TermYears: 30,
		}}
		h, _ := newTestHandler(t, rates, &stubClientStore{})
		rec := doRequest(h, http.MethodGet, "/api/rates/latest?term_years=30", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, envelopeStatus(t, rec))
		assert.Contains(t, rec.Body.String(), `"rate_value":6.25`)
	})
}

func TestAlertCheck(t *testing.T) {
	clients := &stubClientStore{clients: []models.Client{{
		ID:       "c1",
		BrokerID: "b1",
		Mortgages: []models.Mortgage{{
			ID: "m1", ClientID: "c1", CurrentRate: 7.0, LoanAmount: 250000, TermYears: 30,
		}},
	}}}
	rates := &stubRateStore{latest: &models.RateObservation{
		ObservedDate: "2025-03-10", RateType: "fixed", RateValue: 6.25, TermYears: 30,
	}}
	h, notes := newTestHandler(t, rates, clients)
	brokerTok := brokerToken(t, "b1")

	t.Run("no token", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/alerts/check", "", `{"clientId":"c1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, envelopeStatus(t, rec))
	})

	t.Run("unknown client", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/alerts/check", brokerTok, `{"clientId":"ghost"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, http.StatusBadRequest, envelopeStatus(t, rec))
	})

	t.Run("missing clientId", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/alerts/check", brokerTok, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, http.StatusBadRequest, envelopeStatus(t, rec))
	})

	t.Run("opportunity produces a notification", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/api/alerts/check", brokerTok, `{"clientId":"c1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, envelopeStatus(t, rec))
		assert.Equal(t, 1, notes.created)
		assert.Contains(t, rec.Body.String(), "Refinance Opportunity")
	})
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRateStore{}, &stubClientStore{})
		rec := doRequest(h, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, envelopeStatus(t, rec))
	})

	t.Run("degraded storage", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRateStore{healthErr: errors.New("pool closed")}, &stubClientStore{})
		rec := doRequest(h, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, http.StatusInternalServerError, envelopeStatus(t, rec))
		assert.Contains(t, rec.Body.String(), "degraded")
	})
}
