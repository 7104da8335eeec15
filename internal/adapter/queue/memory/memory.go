package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
)

const defaultBlockTimeout = 5 * time.Second

// Queue delivers refresh messages between goroutines of one process.
type Queue struct {
	ch           chan entities.RefreshMessage
	blockTimeout time.Duration
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}

	return &Queue{
		ch:           make(chan entities.RefreshMessage, size),
		blockTimeout: defaultBlockTimeout,
	}
}

// Publish never blocks. When the buffer is full the message is dropped:
// the refreshes already pending will pick up the same catalog.
func (q *Queue) Publish(ctx context.Context, msg entities.RefreshMessage) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "queue.memory.Publish")
	}

	select {
	case q.ch <- msg:
	default:
		slog.Warn("Refresh queue full, message coalesced with pending ones", "id", msg.ID, "origin", msg.Origin)
	}

	return nil
}

func (q *Queue) Consume(ctx context.Context) (entities.RefreshMessage, func(context.Context) error, error) {
	timer := time.NewTimer(q.blockTimeout)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		return msg, func(context.Context) error { return nil }, nil
	case <-timer.C:
		return entities.RefreshMessage{}, nil, entities.ErrQueueEmpty
	case <-ctx.Done():
		return entities.RefreshMessage{}, nil, errors.Wrap(ctx.Err(), "queue.memory.Consume")
	}
}
