package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"chatassist.app/api/common/logger"
	"chatassist.app/api/core/config"
	"chatassist.app/api/core/db"
	"chatassist.app/api/core/db/migrations"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// migrate applies the embedded schema so deployments do not need the goose CLI.
func main() {
	ctx := context.Background()
	command := flag.String("command", "up", "goose command: up, down, status, version")
	flag.Parse()

	cfg, err := config.Load(config.ServiceTypeMigrate)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	sqlDB := stdlib.OpenDBFromPool(database.Pool())
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		slog.ErrorContext(ctx, "failed to set goose dialect", "error", err)
		os.Exit(1)
	}

	if err := goose.RunContext(ctx, *command, sqlDB, "."); err != nil {
		slog.ErrorContext(ctx, "migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "migrations complete", "command", *command)
}
