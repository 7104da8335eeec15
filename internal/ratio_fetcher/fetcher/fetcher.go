package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
)

const defaultRetryDelay = time.Second

type Fetcher struct {
	refresher  Refresher
	queue      Queue
	interval   time.Duration
	retryDelay time.Duration
}

// NewFetcher builds a worker that refreshes once per queued message and,
// when interval is positive, on a fixed schedule as well.
func NewFetcher(refresher Refresher, queue Queue, interval time.Duration) *Fetcher {
	return &Fetcher{
		refresher:  refresher,
		queue:      queue,
		interval:   interval,
		retryDelay: defaultRetryDelay,
	}
}

// StartFetcher blocks until ctx is done.
func (f *Fetcher) StartFetcher(ctx context.Context) error {
	const op = "fetcher.StartFetcher"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.listenRefresh(ctx)
	}()
	defer wg.Wait()

	if f.interval <= 0 {
		<-ctx.Done()
		return errors.Wrap(ctx.Err(), op)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if f.refresher.Refresh(ctx) {
				slog.Info("POS ratios refreshed", "op", op, "origin", entities.OriginSchedule)
			} else {
				slog.Error("POS ratios refresh failed", "op", op, "origin", entities.OriginSchedule)
			}

		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), op)
		}
	}
}

func (f *Fetcher) listenRefresh(ctx context.Context) {
	const op = "fetcher.listenRefresh"

	for {
		if ctx.Err() != nil {
			slog.Info("Refresh listener stopped", "op", op)
			return
		}

		msg, ack, err := f.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, entities.ErrQueueEmpty) || errors.Is(err, entities.ErrInvalidPayload) {
				continue
			}

			if ctx.Err() != nil {
				continue
			}

			slog.Error("Failed to consume refresh message", "op", op, "error", err)

			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
			}
			continue
		}

		f.handle(ctx, msg, ack)
	}
}

func (f *Fetcher) handle(ctx context.Context, msg entities.RefreshMessage, ack func(context.Context) error) {
	const op = "fetcher.handle"

	slog.Info("Received refresh message", "op", op, "id", msg.ID, "origin", msg.Origin, "requested_at", msg.RequestedAt)

	if f.refresher.Refresh(ctx) {
		slog.Info("POS ratios refreshed", "op", op, "id", msg.ID)
	} else {
		slog.Error("POS ratios refresh failed", "op", op, "id", msg.ID)
	}

	if err := ack(context.WithoutCancel(ctx)); err != nil {
		slog.Error("Failed to acknowledge refresh message", "op", op, "id", msg.ID, "error", err)
	}
}
