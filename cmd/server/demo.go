package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/kroma-labs/sentinel-dbtrace/internal/database"
)

// runDemo performs database operations in a loop so the exporters have
// something to show. It returns nil once ctx is done.
func runDemo(ctx context.Context, users *database.Users, interval time.Duration, logger zerolog.Logger) error {
	tracer := otel.Tracer("sentinel-dbtrace-example")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		opCtx, span := tracer.Start(ctx, "db-operations")

		if _, err := users.Create(opCtx, fmt.Sprintf("demo-%d", i), fmt.Sprintf("demo-%d-%d@example.com", time.Now().Unix(), i)); err != nil {
			logger.Warn().Err(err).Msg("demo insert failed")
		}
		list, err := users.List(opCtx, 10)
		if err != nil {
			logger.Warn().Err(err).Msg("demo query failed")
		}
		if len(list) > 0 {
			if _, err := users.Get(opCtx, list[0].ID); err != nil {
				logger.Warn().Err(err).Msg("demo lookup failed")
			}
		}

		span.End()
		logger.Debug().Int("iteration", i).Msg("demo operations completed")
	}
}
