package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/riskgov/internal/audit"
	"github.com/sawpanic/riskgov/internal/capital"
	"github.com/sawpanic/riskgov/internal/confidence"
	"github.com/sawpanic/riskgov/internal/config"
	"github.com/sawpanic/riskgov/internal/engine"
	"github.com/sawpanic/riskgov/internal/httpapi"
	"github.com/sawpanic/riskgov/internal/meta"
	"github.com/sawpanic/riskgov/internal/persistence"
	"github.com/sawpanic/riskgov/internal/quarantine"
	"github.com/sawpanic/riskgov/internal/telemetry"
)

func serveCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the governance control plane (tick endpoint, metrics, operator reset)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetricsRegistry(registry)

	supervisor, err := buildSupervisor(ctx, cfg, metrics)
	if err != nil {
		return err
	}

	server := httpapi.NewServer(supervisor, cfg.Server, registry)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(_ *config.Config) {
				// Governor thresholds bind at construction; only the
				// control-plane limits apply live.
				log.Info().Msg("new thresholds staged; governors pick them up on restart")
			})
			if err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	return server.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		log.Info().Msg("no config file supplied, using defaults")
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", configPath).Msg("config loaded")
	return cfg, nil
}

func buildSupervisor(ctx context.Context, cfg *config.Config, metrics *telemetry.MetricsRegistry) (*engine.Supervisor, error) {
	qc := quarantine.NewController(cfg.Quarantine)
	cg := capital.NewGovernor(cfg.Capital, qc)
	mg := meta.NewGovernor(cfg.Meta)
	ce := confidence.NewEngine(cfg.Confidence)

	opts := []engine.Option{engine.WithMetrics(metrics)}

	if cfg.Postgres.DSN != "" {
		db, err := sqlx.Connect("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect audit ledger: %w", err)
		}
		writer, err := audit.NewWriter(db)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithAuditor(writer))
		log.Info().Msg("decision audit ledger enabled")
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, engine.WithSnapshotStore(persistence.NewRedisStore(client, cfg.Redis.SnapshotKey)))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("snapshot store enabled")
	}

	supervisor := engine.NewSupervisor(ce, cg, mg, opts...)

	if err := supervisor.RestoreFromStore(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot restore failed, starting fresh")
	}

	return supervisor, nil
}
