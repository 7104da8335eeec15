package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
)

type Publisher interface {
	Publish(ctx context.Context, msg entities.RefreshMessage) error
}

// Coordinator hands refresh requests to the worker through a queue.
type Coordinator struct {
	publisher Publisher
	now       func() time.Time
}

func NewCoordinator(publisher Publisher) *Coordinator {
	return &Coordinator{
		publisher: publisher,
		now:       time.Now,
	}
}

// Trigger enqueues one refresh message and returns without waiting for the refresh.
func (c *Coordinator) Trigger(ctx context.Context, origin string) (entities.RefreshMessage, error) {
	const op = "refresh.Trigger"

	msg := entities.RefreshMessage{
		ID:          uuid.NewString(),
		Origin:      origin,
		RequestedAt: c.now().UTC(),
	}

	if err := c.publisher.Publish(ctx, msg); err != nil {
		return entities.RefreshMessage{}, errors.Wrap(err, op)
	}

	slog.Info("Refresh message dispatched", "id", msg.ID, "origin", origin)

	return msg, nil
}
