// Package bootstrap builds the adapters selected by configuration and shares
// them between the API, the worker and the CLI.
package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/adapter/api_client/ratios_api"
	memoryCache "github.com/langowen/posratio/internal/adapter/cache/memory"
	redisCache "github.com/langowen/posratio/internal/adapter/cache/redis"
	kafkaQueue "github.com/langowen/posratio/internal/adapter/queue/kafka"
	memoryQueue "github.com/langowen/posratio/internal/adapter/queue/memory"
	redisQueue "github.com/langowen/posratio/internal/adapter/queue/redis"
	"github.com/langowen/posratio/internal/adapter/snapshot/file"
	"github.com/langowen/posratio/internal/adapter/snapshot/postgres"
	"github.com/langowen/posratio/internal/metrics"
	"github.com/langowen/posratio/internal/ratio_fetcher/fetcher"
	"github.com/langowen/posratio/internal/ratios"
	"github.com/langowen/posratio/internal/refresh"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const memoryQueueSize = 16

type Deps struct {
	cfg      *config.Config
	redis    redis.UniversalClient
	memQueue *memoryQueue.Queue
	closers  []func()
}

func New(cfg *config.Config) *Deps {
	return &Deps{cfg: cfg}
}

func InitLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

// Redis connects on first use so deployments without Redis never dial it.
func (d *Deps) Redis(ctx context.Context) (redis.UniversalClient, error) {
	if d.redis != nil {
		return d.redis, nil
	}

	client, err := redisQueue.InitClient(ctx, &redis.Options{
		Addr:     d.cfg.Redis.Host,
		Password: d.cfg.Redis.Password,
		DB:       d.cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	d.redis = client
	d.closers = append(d.closers, func() { _ = client.Close() })
	slog.Info("Redis client initialized")

	return client, nil
}

func (d *Deps) Cache(ctx context.Context) (ratios.Cache, error) {
	if d.cfg.Ratios.CacheDriver == "memory" {
		return memoryCache.NewCache(), nil
	}

	client, err := d.Redis(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap.Cache")
	}

	return redisCache.NewStorage(client), nil
}

func (d *Deps) Snapshot(ctx context.Context) (ratios.Snapshot, error) {
	if d.cfg.Ratios.SnapshotDriver == "postgres" {
		pg, err := postgres.New(ctx, d.cfg.Storage.URL(), d.cfg.Storage.Timeout)
		if err != nil {
			return nil, errors.Wrap(err, "bootstrap.Snapshot")
		}
		d.closers = append(d.closers, pg.Close)

		return pg, nil
	}

	return file.NewStorage(d.cfg.Ratios.StoragePath), nil
}

func (d *Deps) Store(ctx context.Context, m *metrics.Metrics) (*ratios.Store, error) {
	const op = "bootstrap.Store"

	cache, err := d.Cache(ctx)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	snapshot, err := d.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	source := ratios_api.NewHTTPClient(d.cfg.Ratios.APIURL, d.cfg.Ratios.APITimeout)

	return ratios.NewStore(source, snapshot, cache,
		ratios.WithTTL(d.cfg.Ratios.CacheTTL),
		ratios.WithSupportedCurrencies(d.cfg.Selection.SupportedCurrencies),
		ratios.WithMetrics(m),
	), nil
}

func (d *Deps) Publisher(ctx context.Context) (refresh.Publisher, error) {
	switch d.cfg.Queue.Driver {
	case "kafka":
		pub := kafkaQueue.NewPublisher(d.cfg.Queue.KafkaBrokers, d.cfg.Queue.KafkaTopic)
		d.closers = append(d.closers, func() { _ = pub.Close() })
		return pub, nil
	case "memory":
		return d.memoryQueue(), nil
	default:
		client, err := d.Redis(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "bootstrap.Publisher")
		}
		return redisQueue.NewQueue(client), nil
	}
}

// Consumer returns the worker side of the refresh queue. For Redis, messages
// left unacknowledged by a previous worker are put back first.
func (d *Deps) Consumer(ctx context.Context) (fetcher.Queue, error) {
	const op = "bootstrap.Consumer"

	switch d.cfg.Queue.Driver {
	case "kafka":
		c := kafkaQueue.NewConsumer(d.cfg.Queue.KafkaBrokers, d.cfg.Queue.KafkaTopic, d.cfg.Queue.KafkaGroupID)
		d.closers = append(d.closers, func() { _ = c.Close() })
		return c, nil
	case "memory":
		return d.memoryQueue(), nil
	default:
		client, err := d.Redis(ctx)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}

		q := redisQueue.NewQueue(client)
		moved, err := q.Recover(ctx)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		if moved > 0 {
			slog.Warn("Re-queued unacknowledged refresh messages", "count", moved)
		}

		return q, nil
	}
}

func (d *Deps) memoryQueue() *memoryQueue.Queue {
	if d.memQueue == nil {
		d.memQueue = memoryQueue.NewQueue(memoryQueueSize)
	}
	return d.memQueue
}

// Close releases everything opened so far, newest first.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
