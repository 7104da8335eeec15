package fetcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	ok    bool
}

func (r *countingRefresher) Refresh(context.Context) bool {
	r.calls.Add(1)
	return r.ok
}

type chanQueue struct {
	ch    chan entities.RefreshMessage
	acked atomic.Int32
	err   error
}

func (q *chanQueue) Consume(ctx context.Context) (entities.RefreshMessage, func(context.Context) error, error) {
	if q.err != nil {
		return entities.RefreshMessage{}, nil, q.err
	}

	select {
	case msg := <-q.ch:
		return msg, func(context.Context) error {
			q.acked.Add(1)
			return nil
		}, nil
	case <-time.After(10 * time.Millisecond):
		return entities.RefreshMessage{}, nil, entities.ErrQueueEmpty
	case <-ctx.Done():
		return entities.RefreshMessage{}, nil, ctx.Err()
	}
}

func startFetcher(t *testing.T, f *Fetcher) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.StartFetcher(ctx) }()

	t.Cleanup(cancel)

	return cancel, done
}

func TestFetcher_RefreshesOncePerMessage(t *testing.T) {
	refresher := &countingRefresher{ok: true}
	queue := &chanQueue{ch: make(chan entities.RefreshMessage, 3)}
	f := NewFetcher(refresher, queue, 0)

	for _, id := range []string{"a", "b", "c"} {
		queue.ch <- entities.RefreshMessage{ID: id, Origin: entities.OriginCLI}
	}

	cancel, done := startFetcher(t, f)

	require.Eventually(t, func() bool { return queue.acked.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), refresher.calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetcher did not stop")
	}
}

func TestFetcher_AcksFailedRefresh(t *testing.T) {
	refresher := &countingRefresher{ok: false}
	queue := &chanQueue{ch: make(chan entities.RefreshMessage, 1)}
	queue.ch <- entities.RefreshMessage{ID: "a"}

	startFetcher(t, NewFetcher(refresher, queue, 0))

	require.Eventually(t, func() bool { return queue.acked.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestFetcher_ScheduledRefresh(t *testing.T) {
	refresher := &countingRefresher{ok: true}
	queue := &chanQueue{ch: make(chan entities.RefreshMessage)}

	startFetcher(t, NewFetcher(refresher, queue, 10*time.Millisecond))

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestFetcher_ConsumeErrorBacksOff(t *testing.T) {
	refresher := &countingRefresher{ok: true}
	queue := &chanQueue{err: errors.New("connection reset")}
	f := NewFetcher(refresher, queue, 0)
	f.retryDelay = 5 * time.Millisecond

	cancel, done := startFetcher(t, f)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetcher did not stop")
	}
	assert.Zero(t, refresher.calls.Load())
}
