package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/langowen/posratio/deploy/config"
	fetcherApp "github.com/langowen/posratio/internal/ratio_fetcher/app"
)

func main() {
	cfg := config.NewConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := fetcherApp.NewFetcherApp(cfg)
	app.Start(ctx)

	slog.Info("fetcher stopped")
}
