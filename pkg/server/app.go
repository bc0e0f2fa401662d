package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	mid "RateWatch/internal/middleware"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/usecase"
	domrepo "RateWatch/internal/domain/repository"
	"RateWatch/pkg/config"
	xhttp "RateWatch/pkg/http"
	pkgpg "RateWatch/pkg/postgres"
	applogger "RateWatch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	handler   xhttp.Handler
	scheduler *usecase.Scheduler
	hub       *mid.RateHub
	publisher domrepo.EventPublisher
	cache     icache.BytesCache
	pgClient  *pkgpg.Client

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	scheduler *usecase.Scheduler,
	hub *mid.RateHub,
	publisher domrepo.EventPublisher,
	cache icache.BytesCache,
	pgClient *pkgpg.Client,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		scheduler: scheduler,
		hub:       hub,
		publisher: publisher,
		cache:     cache,
		pgClient:  pgClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.hub.Start()

	if a.cfg.Schedule.TickerOn {
		a.scheduler.Start(ctx)
	}

	a.httpServer = xhttp.NewServer(a.handler, a.l,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Schedule.TickerOn {
		a.scheduler.Stop()
	}
	a.hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.publisher.Close(); err != nil {
		a.l.Warn("publisher close error", applogger.Error(err))
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		a.pgClient.Close()
	}

	a.l.Info("shutdown complete")
	return nil
}
