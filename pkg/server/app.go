package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TraderGenie/internal/scheduler"
	xhttp "TraderGenie/pkg/http"
	applogger "TraderGenie/pkg/logger"
)

// Resource is an infrastructure client closed on shutdown.
type Resource struct {
	Name  string
	Close func() error
}

// Resources are closed in reverse order of registration.
type Resources []Resource

// App owns the process lifecycle: HTTP server, optional scan scheduler
// and the infrastructure clients behind them.
type App struct {
	http            *xhttp.Server
	scheduler       *scheduler.Scheduler
	resources       Resources
	log             *applogger.Logger
	shutdownTimeout time.Duration
}

// New creates the application. sched may be nil when no schedule is set.
func New(srv *xhttp.Server, sched *scheduler.Scheduler, res Resources, log *applogger.Logger, shutdownTimeout time.Duration) *App {
	if log == nil {
		log = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{
		http:            srv,
		scheduler:       sched,
		resources:       res,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts everything and blocks until SIGINT/SIGTERM, ctx cancellation
// or a listener failure.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.http.Start(); err != nil {
		return fmt.Errorf("http start: %w", err)
	}
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.http.Err():
		runErr = fmt.Errorf("http server: %w", err)
	}

	if err := a.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the scheduler first so no scan starts mid-teardown, then
// the HTTP server, then the resources.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	a.log.Info("shutting down")
	var firstErr error

	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
			firstErr = err
		}
	}

	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if r.Close == nil {
			continue
		}
		if err := r.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", r.Name), applogger.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("close %s: %w", r.Name, err)
			}
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
