package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	QueueKey      = "pos_ratios:refresh"
	ProcessingKey = "pos_ratios:refresh:processing"

	defaultBlockTimeout = 5 * time.Second
)

// Queue is a reliable Redis list queue. Consumed messages stay in the
// processing list until acknowledged.
type Queue struct {
	rdb          redis.UniversalClient
	blockTimeout time.Duration
}

func NewQueue(client redis.UniversalClient) *Queue {
	return &Queue{
		rdb:          client,
		blockTimeout: defaultBlockTimeout,
	}
}

func InitClient(ctx context.Context, options *redis.Options) (redis.UniversalClient, error) {
	const op = "queue.redis.InitClient"

	redisClient := redis.NewClient(options)

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		_ = redisClient.Close()
		return nil, errors.Wrap(err, op)
	}

	return redisClient, nil
}

func (q *Queue) Publish(ctx context.Context, msg entities.RefreshMessage) error {
	const op = "queue.redis.Publish"

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err := q.rdb.LPush(ctx, QueueKey, payload).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

// Consume blocks until a message arrives or the block timeout elapses, in
// which case it returns entities.ErrQueueEmpty.
func (q *Queue) Consume(ctx context.Context) (entities.RefreshMessage, func(context.Context) error, error) {
	const op = "queue.redis.Consume"

	payload, err := q.rdb.BLMove(ctx, QueueKey, ProcessingKey, "RIGHT", "LEFT", q.blockTimeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entities.RefreshMessage{}, nil, entities.ErrQueueEmpty
		}
		return entities.RefreshMessage{}, nil, errors.Wrap(err, op)
	}

	ack := func(ctx context.Context) error {
		if err := q.rdb.LRem(ctx, ProcessingKey, 1, payload).Err(); err != nil {
			return errors.Wrap(err, "queue.redis.Ack")
		}
		return nil
	}

	var msg entities.RefreshMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("Dropping malformed refresh message", "op", op, "payload", payload, "error", err)
		_ = ack(ctx)
		return entities.RefreshMessage{}, nil, errors.Wrap(entities.ErrInvalidPayload, op)
	}

	return msg, ack, nil
}

// Recover moves messages left in the processing list by a crashed worker
// back to the head of the queue. It returns how many were moved.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	const op = "queue.redis.Recover"

	moved := 0
	for {
		err := q.rdb.LMove(ctx, ProcessingKey, QueueKey, "RIGHT", "RIGHT").Err()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, errors.Wrap(err, op)
		}
		moved++
	}
}
