package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "RateWatch/internal/domain/models"
	domrepo "RateWatch/internal/domain/repository"
	mid "RateWatch/internal/middleware"
	"RateWatch/internal/service/auth"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/usecase"
	xhttp "RateWatch/pkg/http"
	xlogger "RateWatch/pkg/logger"
)

// RatesEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type RatesEchoHandler struct {
	logger    *xlogger.Logger
	verifier  *auth.Verifier
	scheduler *usecase.Scheduler
	portfolio *usecase.PortfolioAnalytics
	alerts    *usecase.AlertDispatcher
	rates     domrepo.RateStore
	cache     icache.BytesCache
	hub       *mid.RateHub
	upgrader  websocket.Upgrader
}

func NewRatesEchoHandler(
	logger *xlogger.Logger,
	verifier *auth.Verifier,
	scheduler *usecase.Scheduler,
	portfolio *usecase.PortfolioAnalytics,
	alerts *usecase.AlertDispatcher,
	rates domrepo.RateStore,
	cache icache.BytesCache,
	hub *mid.RateHub,
) *RatesEchoHandler {
	return &RatesEchoHandler{
		logger:    logger,
		verifier:  verifier,
		scheduler: scheduler,
		portfolio: portfolio,
		alerts:    alerts,
		rates:     rates,
		cache:     cache,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard origins are handled by the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *RatesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scheduled/run", h.ScheduledRun)
	g.GET("/rates/latest", h.LatestRate)
	g.GET("/rates/history", h.RateHistory)
	g.GET("/analytics", h.Analytics)
	g.POST("/alerts/check", h.AlertCheck)
	g.POST("/alerts/sweep", h.AlertSweep)

	e.GET("/ws/rates", h.LiveRates)
	e.GET("/health", h.Health)
}

// ScheduledRun runs one gated ingestion cycle on behalf of an external
// scheduler.
func (h *RatesEchoHandler) ScheduledRun(c echo.Context) error {
	if err := h.verifier.VerifyServiceToken(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
		return xhttp.UnauthorizedResponse(c, "Service credential is invalid")
	}

	summary, err := h.scheduler.RunScheduled(c.Request().Context())
	if err != nil {
		h.logger.Error("scheduled run error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, summary)
}

// LatestRate serves the most recent stored observation, cache first.
func (h *RatesEchoHandler) LatestRate(c echo.Context) error {
	req := &models.LatestRateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if b, ok, err := h.cache.GetBytes(ctx, icache.LatestKey(req.TermYears)); err == nil && ok {
		var obs models.RateObservation
		if err := json.Unmarshal(b, &obs); err == nil {
			return xhttp.SuccessResponse(c, &obs)
		}
	}

	obs, err := h.rates.Latest(ctx, req.TermYears)
	if err != nil {
		h.logger.Error("latest rate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	if obs == nil {
		return xhttp.NotFoundResponse(c, "No rate observation recorded yet")
	}
	return xhttp.SuccessResponse(c, obs)
}

// RateHistory serves the recent observation series for charting.
func (h *RatesEchoHandler) RateHistory(c echo.Context) error {
	req := &models.RateHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.rates.History(c.Request().Context(), req.TermYears, req.Days)
	if err != nil {
		h.logger.Error("rate history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	return xhttp.ListResponse(c, series, int64(len(series)))
}

// Analytics serves the authenticated broker's portfolio snapshot.
func (h *RatesEchoHandler) Analytics(c echo.Context) error {
	brokerID, err := h.verifier.BrokerID(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return xhttp.UnauthorizedResponse(c, "Token is invalid")
	}

	snap, err := h.portfolio.Snapshot(c.Request().Context(), brokerID)
	if err != nil {
		h.logger.Error("analytics snapshot error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, snap)
}

// AlertCheck runs the refinance-opportunity check for one client.
func (h *RatesEchoHandler) AlertCheck(c echo.Context) error {
	brokerID, err := h.verifier.BrokerID(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return xhttp.UnauthorizedResponse(c, "Token is invalid")
	}

	req := &models.AlertCheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	n, err := h.alerts.CheckAndNotify(c.Request().Context(), brokerID, req.ClientID)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			return xhttp.BadRequestResponse(c, "Unknown client")
		}
		h.logger.Error("alert check error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	if n == nil {
		return xhttp.SuccessResponse(c, map[string]bool{"notified": false})
	}
	if h.hub != nil {
		h.hub.BroadcastNotification(n)
	}
	return xhttp.SuccessResponse(c, n)
}

// AlertSweep runs the opportunity check across the broker's portfolio.
func (h *RatesEchoHandler) AlertSweep(c echo.Context) error {
	brokerID, err := h.verifier.BrokerID(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return xhttp.UnauthorizedResponse(c, "Token is invalid")
	}

	summary, err := h.alerts.Sweep(c.Request().Context(), brokerID)
	if err != nil {
		h.logger.Error("alert sweep error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, summary)
}

// LiveRates upgrades the connection and hands it to the hub.
func (h *RatesEchoHandler) LiveRates(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return xhttp.BadRequestResponse(c, "WebSocket upgrade failed")
	}
	h.hub.Join(conn)
	return nil
}

// Health reports storage reachability.
func (h *RatesEchoHandler) Health(c echo.Context) error {
	if err := h.rates.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusInternalServerError, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// mapDomainError converts domain failures to transport errors.
func (h *RatesEchoHandler) mapDomainError(err error) error {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return xhttp.InternalErrorf("rate source failure (%s)", fe.Kind).WithError(err)
	}
	var se *models.StoreError
	if errors.As(err, &se) {
		return xhttp.InternalError("storage failure").WithError(err)
	}
	if errors.Is(err, models.ErrUnauthorized) {
		return xhttp.UnauthorizedError("Credential rejected")
	}
	return xhttp.InternalError("Internal error").WithError(err)
}
