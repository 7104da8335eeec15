package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Storage struct {
	rdb redis.UniversalClient
}

func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{rdb: client}
}

func (s *Storage) Get(ctx context.Context, key string) ([]entities.PosRatio, bool, error) {
	const op = "cache.redis.Get"

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, op)
	}

	var ratios []entities.PosRatio
	if err := json.Unmarshal(data, &ratios); err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	return ratios, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, ratios []entities.PosRatio, ttl time.Duration) error {
	const op = "cache.redis.Set"

	data, err := json.Marshal(ratios)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "cache.redis.Delete"

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
