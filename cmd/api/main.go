package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/guardforce-backend/api/routes"
	"github.com/angelmondragon/guardforce-backend/pkg/bootstrap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	proc, err := bootstrap.Start("api")
	if err != nil {
		proc.Exit("startup failed", err)
	}
	defer proc.Shutdown()

	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()
	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Exit("database unavailable", err)
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		proc.Exit("redis unavailable", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := wire(cfg, logg, dbClient, registry)
	if err != nil {
		proc.Exit("failed to wire services", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr: ":" + port,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Metrics:       registry,
			Kanban:        app.kanban,
			Shifts:        app.shifts,
			Assignments:   app.assignments,
			Alerts:        app.alerts,
			Monitor:       app.monitor,
			Notifications: app.notifications,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := proc.Run(map[string]any{"addr": server.Addr}, serve(server)); err != nil {
		proc.Exit("api server stopped unexpectedly", err)
	}
}

// serve runs server until ctx ends, then drains in-flight requests.
func serve(server *http.Server) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}
	}
}
