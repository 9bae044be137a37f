package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dealhunt/internal/application"
	"dealhunt/pkg/logx"
)

// version is stamped by the build.
var version = "dev" //nolint:gochecknoglobals

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx, version); err != nil {
		slog.Error("application failed", logx.Error(err))
		os.Exit(1)
	}

	slog.Info("application stopped")
}
