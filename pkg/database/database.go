package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evacdesk/rollcall/pkg/config"
)

func Connect(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dbCfg)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

func poolConfig(dbCfg config.DatabaseConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	cfg.MinConns = dbCfg.MinConns
	cfg.MaxConns = dbCfg.MaxConns
	cfg.MaxConnLifetime = dbCfg.MaxLifetime
	cfg.HealthCheckPeriod = 30 * time.Second

	// Day-bucketing queries cast timestamptz with ::date, which uses the
	// session time zone. Pin it to the application zone so "today" means the
	// same calendar day in SQL as it does in internal/clock. "Local" is Go's
	// name for the host zone, not a Postgres one, so leave the server default
	// in that case.
	if dbCfg.Timezone != "" && dbCfg.Timezone != "Local" {
		cfg.ConnConfig.RuntimeParams["timezone"] = dbCfg.Timezone
	}

	return cfg, nil
}
