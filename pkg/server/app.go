package server

import (
	"context"

	"SalesCast/internal/usecase"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	applogger "SalesCast/pkg/logger"
)

// App encapsulates the wired application: the pipeline for one-shot commands and
// the HTTP server for serve mode.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	Pipeline   *usecase.Pipeline
	Runs       *usecase.RunsUseCase
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	runs *usecase.RunsUseCase,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		Pipeline:   pipeline,
		Runs:       runs,
		httpServer: httpServer,
	}
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Logger() *applogger.Logger { return a.log }

// Serve starts the HTTP server and blocks until ctx is done or the server fails.
// Infrastructure clients are closed by the cleanup returned from DI, not here.
func (a *App) Serve(ctx context.Context) error {
	errCh, err := a.httpServer.Start()
	if err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.log.Error("http server error", applogger.Error(serveErr))
		}
	}

	a.log.Info("shutting down...")
	// ctx may already be cancelled; Stop applies its own shutdown timeout
	if err := a.httpServer.Stop(context.WithoutCancel(ctx)); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		if serveErr == nil {
			serveErr = err
		}
	}
	a.log.Info("shutdown complete")
	return serveErr
}
