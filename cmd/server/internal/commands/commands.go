// Package commands implements the diversityorgs subcommands.
package commands

import (
	"context"
	"fmt"
	"time"

	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/logger"
)

type Globals struct {
	Debug   bool
	Version string
}

// setup loads the configuration and installs the global logger.
func setup(globals *Globals) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Options{Dev: cfg.IsDev() || globals.Debug, File: cfg.LogFile})
	return cfg, nil
}

// connect waits for the database and applies pending migrations.
func connect(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL, time.Duration(cfg.DatabaseWaitSecs)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return database, nil
}
