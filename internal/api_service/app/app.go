package apiApp

import (
	"context"
	"log"
	"log/slog"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/api_service/ports/http/public"
	"github.com/langowen/posratio/internal/api_service/service"
	"github.com/langowen/posratio/internal/bootstrap"
	"github.com/langowen/posratio/internal/metrics"
	"github.com/langowen/posratio/internal/ratio_fetcher/fetcher"
	"github.com/langowen/posratio/internal/ratios"
	"github.com/langowen/posratio/internal/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type ApiApp struct {
	cfg  *config.Config
	deps *bootstrap.Deps
}

func NewApiApp(cfg *config.Config) *ApiApp {
	return &ApiApp{
		cfg:  cfg,
		deps: bootstrap.New(cfg),
	}
}

// Start runs the HTTP API until ctx is done. The returned channel is closed
// once the server and any in-process worker have stopped.
func (a *ApiApp) Start(ctx context.Context) <-chan struct{} {
	bootstrap.InitLogger(a.cfg.Log.Level)
	slog.Info("Logger initialized")

	slog.Info("starting server", "port", a.cfg.HTTPServer.Port, "snapshot", a.cfg.Ratios.SnapshotDriver,
		"cache", a.cfg.Ratios.CacheDriver, "queue", a.cfg.Queue.Driver)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	store := a.initStore(ctx, m)
	slog.Info("Ratio store initialized")

	apiService := a.initService(store, m)
	slog.Info("Service initialized")

	coordinator := a.initCoordinator(ctx)
	slog.Info("Refresh coordinator initialized")

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Queue.Driver == "memory" {
		worker := a.initWorker(ctx, store)
		g.Go(func() error {
			_ = worker.StartFetcher(gctx)
			return nil
		})
		slog.Info("In-process refresh worker started")
	}

	serverDone := public.StartServer(gctx, apiService, coordinator, a.cfg)
	slog.Info("server started")

	g.Go(func() error {
		<-serverDone
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		a.deps.Close()
		close(done)
	}()

	return done
}

func (a *ApiApp) initStore(ctx context.Context, m *metrics.Metrics) *ratios.Store {
	store, err := a.deps.Store(ctx, m)
	if err != nil {
		log.Fatalln("Failed to initialize ratio store", "error", err)
	}

	return store
}

func (a *ApiApp) initService(store *ratios.Store, m *metrics.Metrics) *service.Service {
	calc := service.NewCostCalculator(a.cfg.Selection.CurrencyMultipliers)

	return service.NewService(store, service.NewFilter(), service.NewSelector(calc), m)
}

func (a *ApiApp) initCoordinator(ctx context.Context) *refresh.Coordinator {
	publisher, err := a.deps.Publisher(ctx)
	if err != nil {
		log.Fatalln("Failed to initialize refresh queue", "error", err)
	}

	return refresh.NewCoordinator(publisher)
}

func (a *ApiApp) initWorker(ctx context.Context, store *ratios.Store) *fetcher.Fetcher {
	queue, err := a.deps.Consumer(ctx)
	if err != nil {
		log.Fatalln("Failed to initialize refresh consumer", "error", err)
	}

	return fetcher.NewFetcher(store, queue, a.cfg.Ratios.RefreshInterval)
}
