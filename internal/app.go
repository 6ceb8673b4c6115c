package internal

import (
	"approachlog/internal/controllers"
	"approachlog/internal/providers"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
	core      *Core
}

func NewApp(core *Core, apiController *controllers.ApiController, healthController *controllers.HealthController, router providers.RouterProviderInterface) (*App, error) {
	conf := core.Config

	// Inner mux: API routes
	apiMux := http.NewServeMux()
	known := make([]string, 0)
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
		known = append(known, route.Url)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(core.Metrics, known, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		core: core,
	}, nil
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then drains
// pending backups and releases the store.
func (a *App) Run(ctx context.Context) error {
	conf, logger, scheduler := a.core.Config, a.core.Logger, a.core.Scheduler
	defer a.core.Close()

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	if err := a.core.Open(ctx); err != nil {
		return err
	}
	if err := scheduler.Restore(); err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case <-ctx.Done():
		logger.Infof(providers.TypeApp, "Shutdown requested")
	case err := <-serverErr:
		scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.WebServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := scheduler.Persist(); err != nil {
		return err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
