package fetcherApp

import (
	"context"
	"log"
	"log/slog"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/bootstrap"
	"github.com/langowen/posratio/internal/ratio_fetcher/fetcher"
	"github.com/langowen/posratio/internal/ratios"
)

type FetcherApp struct {
	cfg  *config.Config
	deps *bootstrap.Deps
}

func NewFetcherApp(cfg *config.Config) *FetcherApp {
	return &FetcherApp{
		cfg:  cfg,
		deps: bootstrap.New(cfg),
	}
}

// Start blocks until ctx is done.
func (f *FetcherApp) Start(ctx context.Context) {
	bootstrap.InitLogger(f.cfg.Log.Level)
	slog.Info("Logger initialized")

	defer f.deps.Close()

	if f.cfg.Queue.Driver == "memory" {
		log.Fatalln("Queue driver memory only works inside the API process, use redis or kafka")
	}

	store := f.initStore(ctx)
	slog.Info("Ratio store initialized")

	queue := f.initQueue(ctx)
	slog.Info("Refresh queue initialized", "driver", f.cfg.Queue.Driver)

	slog.Info("starting fetcher", "refresh_interval", f.cfg.Ratios.RefreshInterval)
	if err := fetcher.NewFetcher(store, queue, f.cfg.Ratios.RefreshInterval).StartFetcher(ctx); err != nil {
		slog.Info("Fetcher stopped", "reason", err)
	}
}

func (f *FetcherApp) initStore(ctx context.Context) *ratios.Store {
	store, err := f.deps.Store(ctx, nil)
	if err != nil {
		log.Fatalln("Failed to initialize ratio store", "error", err)
	}

	return store
}

func (f *FetcherApp) initQueue(ctx context.Context) fetcher.Queue {
	queue, err := f.deps.Consumer(ctx)
	if err != nil {
		log.Fatalln("Failed to initialize refresh queue", "error", err)
	}

	return queue
}
