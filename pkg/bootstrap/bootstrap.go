// Package bootstrap holds the process setup shared by every binary: env
// loading, config, the service logger and the infrastructure clients, closed
// in reverse order on shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/guardforce-backend/pkg/config"
	"github.com/angelmondragon/guardforce-backend/pkg/db"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/migrate"
	"github.com/angelmondragon/guardforce-backend/pkg/pubsub"
	"github.com/angelmondragon/guardforce-backend/pkg/redis"
)

type closer struct {
	name  string
	close func() error
}

// Process is one running binary.
type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger

	closers []closer
}

// Start loads .env (optional) and config, then builds the logger for kind.
func Start(kind string) (*Process, error) {
	boot := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		boot.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return &Process{Kind: kind, Logger: boot}, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	return &Process{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Format:      cfg.App.LogFormat,
		}),
	}, nil
}

func (p *Process) onClose(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, close: fn})
}

// Database opens the primary database and applies dev migrations when the
// environment asks for them.
func (p *Process) Database(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, p.Config.DB, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	p.onClose("database", client.Close)

	if err := migrate.MaybeRunDev(ctx, p.Config, p.Logger, client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return client, nil
}

func (p *Process) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, p.Config.Redis, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	p.onClose("redis", client.Close)
	return client, nil
}

func (p *Process) PubSub(ctx context.Context, opts ...pubsub.Option) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, p.Config.GCP, p.Config.PubSub, p.Logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	p.onClose("pubsub", client.Close)
	return client, nil
}

// Close releases clients in reverse acquisition order.
func (p *Process) Close() error {
	var err error
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if cerr := c.close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	p.closers = nil
	return err
}

// Run blocks in fn until it returns or the process receives SIGINT/SIGTERM.
// A cancellation caused by the signal is not an error.
func (p *Process) Run(fields map[string]any, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := map[string]any{"serviceKind": p.Kind}
	if p.Config != nil {
		base["env"] = p.Config.App.Env
	}
	for k, v := range fields {
		base[k] = v
	}
	ctx = p.Logger.WithFields(ctx, base)

	p.Logger.Info(ctx, "starting "+p.Kind)
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	p.Logger.Info(ctx, p.Kind+" shutting down gracefully")
	return nil
}

// Exit logs err, closes every client and terminates. Intended for main only.
func (p *Process) Exit(msg string, err error) {
	p.Logger.Error(context.Background(), msg, err)
	p.Shutdown()
	os.Exit(1)
}

// Shutdown closes clients and logs any failure.
func (p *Process) Shutdown() {
	if err := p.Close(); err != nil {
		p.Logger.Error(context.Background(), "error closing clients", err)
	}
}
