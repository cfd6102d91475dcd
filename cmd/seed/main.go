// Command seed loads the demo user and demo credentials into the backend
// selected by the usual environment variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vcdemo/internal/app"
	"vcdemo/internal/platform/config"
	"vcdemo/internal/platform/logger"
	"vcdemo/internal/seeder"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New(slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close() //nolint:errcheck // process exits next

	return seeder.New(application.Users, application.Credentials, log).SeedAll(ctx)
}
