package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres"
	"github.com/hartonomous/substrate/internal/infrastructure/database/redis"
)

// postgresHealthAdapter satisfies handlers.HealthChecker for the durable
// substrate store.
type postgresHealthAdapter struct {
	pool *pgxpool.Pool
}

func (a *postgresHealthAdapter) Name() string {
	return "postgres"
}

func (a *postgresHealthAdapter) Check(ctx context.Context) error {
	return postgres.HealthCheck(ctx, a.pool)
}

// redisHealthAdapter satisfies handlers.HealthChecker for the dedup/cache layer.
type redisHealthAdapter struct {
	client *redis.Client
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.client.Ping(ctx)
}
