package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/kroma-labs/sentinel-dbtrace/internal/config"
	"github.com/kroma-labs/sentinel-dbtrace/internal/database"
	"github.com/kroma-labs/sentinel-dbtrace/internal/server"
	"github.com/kroma-labs/sentinel-dbtrace/internal/telemetry"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Users API whose database calls are traced with sentinel-dbtrace",
		SilenceUsage: true,
		Version:      config.ServiceVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", config.ServiceName).Logger()
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.LogLevel)

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	db, err := database.Open(ctx, cfg, database.Deps{
		Logger:         logger,
		TracerProvider: tel.TracerProvider,
		MeterProvider:  tel.MeterProvider,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	users := database.NewUsers(db)
	if err := users.Migrate(ctx); err != nil {
		return err
	}

	logger.Info().
		Str("backend", cfg.Backend).
		Str("db.system", db.Backend().System()).
		Str("profile", cfg.Profile).
		Dur("slow_query_threshold", db.Config().SlowQueryThreshold()).
		Msg("database ready")

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Addr
	srv := server.New(srvCfg, server.NewRouter(server.RouterConfig{
		Users:          users,
		Logger:         logger,
		TracerProvider: tel.TracerProvider,
		ServiceName:    config.ServiceName,
		Version:        config.ServiceVersion,
		ReadinessChecks: map[string]server.HealthCheck{
			"database": db.Ping,
		},
		MetricsHandler: tel.MetricsHandler(),
	}), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if cfg.DemoInterval > 0 {
		g.Go(func() error {
			return runDemo(gctx, users, cfg.DemoInterval, logger)
		})
	}

	return g.Wait()
}
