package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mediavault/mount-sentinel/internal/app"
	"github.com/mediavault/mount-sentinel/internal/config"
	"github.com/mediavault/mount-sentinel/internal/logging"
	"github.com/mediavault/mount-sentinel/internal/mount"
)

// exitConfigFailure signals that the monitor never reached its targets.
// It is distinct from the mount outcome codes 0, 1, and 2 so schedulers
// can tell "could not run" from "ran and found problems".
const exitConfigFailure = 3

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New()
		bootLogger.Error().Err(err).Msg("configuration failed")
		return exitConfigFailure
	}

	logger := logging.NewWithLevel(cfg.LogLevel)

	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.TargetsFile).Msg("loading targets failed")
		return exitConfigFailure
	}

	controller, err := mount.NewSystemdController()
	if err != nil {
		logger.Error().Err(err).Msg("mount controller unavailable")
		return exitConfigFailure
	}

	application, err := app.New(logger, cfg, targets, controller)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return exitConfigFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Int("targets", len(targets)).
		Bool("watch", cfg.WatchMode()).
		Msg("mount-sentinel starting")

	return application.Run(ctx)
}
