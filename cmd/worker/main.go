package main

import (
	"context"

	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/pkg/bootstrap"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/idempotency"
)

func main() {
	proc, err := bootstrap.Start("worker")
	if err != nil {
		proc.Exit("startup failed", err)
	}
	defer proc.Shutdown()

	ctx := context.Background()
	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Exit("database unavailable", err)
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		proc.Exit("redis unavailable", err)
	}
	subscriptions, err := proc.PubSub(ctx)
	if err != nil {
		proc.Exit("pubsub unavailable", err)
	}

	claims, err := idempotency.NewManager(redisClient, proc.Config.Eventing.IdempotencyTTL)
	if err != nil {
		proc.Exit("idempotency manager", err)
	}

	inbox, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		subscriptions.NotificationSubscription(),
		claims,
		proc.Logger,
	)
	if err != nil {
		proc.Exit("notification consumer", err)
	}

	service, err := NewService(ServiceParams{
		Config:   proc.Config,
		Logger:   proc.Logger,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   subscriptions,
		Consumer: inbox,
	})
	if err != nil {
		proc.Exit("worker service", err)
	}

	if err := proc.Run(nil, service.Run); err != nil {
		proc.Exit("worker stopped unexpectedly", err)
	}
}
