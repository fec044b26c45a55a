package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/ward-resolver/internal/config"
	"github.com/ward-resolver/internal/db"
	"github.com/ward-resolver/internal/engine"
	"github.com/ward-resolver/internal/logging"
	"github.com/ward-resolver/internal/metrics"
	"github.com/ward-resolver/internal/resilience"
	"github.com/ward-resolver/internal/web"
)

const serviceName = "ward-resolver"

// setup loads the configuration and builds the service logger. On error the
// returned logger is a JSON logger at info level.
func setup() (*config.Config, zerolog.Logger, error) {
	// Load environment configuration
	envErr := config.LoadEnv()

	cfg, err := config.Load(config.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, logging.New(serviceName, "info", "json"), err
	}

	logger := logging.New(serviceName, cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env file")
	}
	return cfg, logger, nil
}

func main() {
	cfg, logger, err := setup()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Str("default_city", cfg.Resolution.DefaultCity).
		Int("lookup_concurrency", cfg.Resolution.Concurrency).
		Msg("starting ward resolver")

	ctx := context.Background()

	// Initialize database connection
	dbConn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbConn.Close()

	var m *metrics.Metrics
	var observer engine.Observer
	var listener resilience.StateListener
	if cfg.Metrics.Enabled {
		m = metrics.New(serviceName)
		observer = m
		listener = m.ObserveBreaker
	}

	store := db.NewStore(dbConn.DB)
	guarded := resilience.NewGuardedStore(store, resilience.NewBreakers(cfg.Breaker, logger, listener))

	resolver := engine.NewResolver(guarded, engine.Options{
		Policy:      cfg.Resolution.Policy,
		Concurrency: cfg.Resolution.Concurrency,
		Logger:      &logger,
		Observer:    observer,
	})

	server, err := web.NewServer(cfg, web.Deps{
		Resolver:  resolver,
		Searcher:  guarded,
		Reference: store,
		Metrics:   m,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server failed")
		_ = dbConn.Close()
		os.Exit(1)
	}
}
