package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/guardforce-backend/pkg/bootstrap"
	"github.com/angelmondragon/guardforce-backend/pkg/metrics"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/registry"
	"github.com/angelmondragon/guardforce-backend/pkg/pubsub"
)

func main() {
	proc, err := bootstrap.Start("outbox-publisher")
	if err != nil {
		proc.Exit("startup failed", err)
	}
	defer proc.Shutdown()

	cfg := proc.Config
	ctx := context.Background()

	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Exit("database unavailable", err)
	}
	topics, err := proc.PubSub(ctx, pubsub.RequireTopics(cfg.PubSub.NotificationTopic, cfg.PubSub.WorkflowTopic))
	if err != nil {
		proc.Exit("pubsub unavailable", err)
	}

	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		proc.Exit("event registry", err)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        proc.Logger,
		DB:            dbClient,
		PubSub:        topics,
		Repository:    outbox.NewRepository(dbClient.DB()),
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Registry:      events,
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		proc.Exit("outbox publisher", err)
	}

	if err := proc.Run(nil, service.Run); err != nil {
		proc.Exit("outbox publisher stopped unexpectedly", err)
	}
}
