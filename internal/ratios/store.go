package ratios

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/langowen/posratio/internal/metrics"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	CacheKey   = "pos_ratios_cache_key"
	DefaultTTL = 24 * time.Hour

	refreshKey = "refresh"
)

// Source returns the raw ratio catalog from the upstream API.
type Source interface {
	FetchRatios(ctx context.Context) ([]byte, error)
}

// Snapshot persists the last good catalog. Read returns
// entities.ErrSnapshotNotFound when nothing was written yet.
type Snapshot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]entities.PosRatio, bool, error)
	Set(ctx context.Context, key string, ratios []entities.PosRatio, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	source     Source
	snapshot   Snapshot
	cache      Cache
	ttl        time.Duration
	currencies []string
	metrics    *metrics.Metrics
	group      singleflight.Group
}

type Option func(s *Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSupportedCurrencies drops catalog records in any other currency.
func WithSupportedCurrencies(currencies []string) Option {
	return func(s *Store) {
		s.currencies = slices.Clone(currencies)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func NewStore(source Source, snapshot Snapshot, cache Cache, opts ...Option) *Store {
	s := &Store{
		source:   source,
		snapshot: snapshot,
		cache:    cache,
		ttl:      DefaultTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetAll returns the current catalog. It never fails: when neither the cache
// nor the snapshot can produce a catalog, even after one refresh, the result is empty.
func (s *Store) GetAll(ctx context.Context) []entities.PosRatio {
	const op = "ratios.GetAll"

	cached, ok, err := s.cache.Get(ctx, CacheKey)
	if err != nil {
		slog.Warn("Failed to read ratio cache", "op", op, "error", err)
	}

	if ok {
		s.metrics.RecordCache(metrics.CacheHit)
		return cached
	}

	s.metrics.RecordCache(metrics.CacheMiss)

	catalog, raw, err := s.load(ctx)
	if err != nil {
		slog.Warn("Ratio snapshot unavailable, refreshing", "op", op, "error", err)

		s.Refresh(ctx)

		catalog, raw, err = s.load(ctx)
		if err != nil {
			slog.Error("Failed to load POS ratios", "op", op, "error", err)
			return []entities.PosRatio{}
		}
	}

	if err := s.cache.Set(ctx, CacheKey, catalog, s.ttl); err != nil {
		slog.Warn("Failed to cache POS ratios", "op", op, "error", err)
	}

	// A refresh may have replaced the snapshot and deleted the key between
	// load and Set. Drop what was just cached if the snapshot moved on.
	if !s.snapshotIs(ctx, raw) {
		slog.Info("Ratio snapshot replaced while loading, dropping cached copy", "op", op)
		if err := s.Invalidate(ctx); err != nil {
			slog.Error("Failed to invalidate ratio cache", "op", op, "error", err)
		}
	}

	s.metrics.RecordCatalogSize(len(catalog))

	return catalog
}

// Refresh pulls the catalog from the source, replaces the snapshot and drops
// the cached copy. Concurrent callers share one refresh. Any failure is
// logged and reported as false; the previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)

	v, _, _ := s.group.Do(refreshKey, func() (any, error) {
		start := time.Now()
		ok := s.refresh(ctx)
		s.metrics.RecordRefresh(ok, time.Since(start))

		return ok, nil
	})

	return v.(bool)
}

func (s *Store) Invalidate(ctx context.Context) error {
	const op = "ratios.Invalidate"

	if err := s.cache.Delete(ctx, CacheKey); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Store) refresh(ctx context.Context) (ok bool) {
	const op = "ratios.Refresh"

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Ratio refresh panicked", "op", op, "panic", r)
			ok = false
		}
	}()

	body, err := s.source.FetchRatios(ctx)
	if err != nil {
		slog.Error("Failed to fetch POS ratios", "op", op, "error", err)
		return false
	}

	catalog, err := DecodeCatalog(body, s.currencies)
	if err != nil {
		slog.Error("Invalid data received from ratios API", "op", op, "error", err)
		return false
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "    "); err != nil {
		slog.Error("Failed to format POS ratios", "op", op, "error", err)
		return false
	}

	if err := s.snapshot.Write(ctx, pretty.Bytes()); err != nil {
		slog.Error("Failed to write ratio snapshot", "op", op, "error", err)
		return false
	}

	if err := s.Invalidate(ctx); err != nil {
		slog.Error("Failed to invalidate ratio cache", "op", op, "error", err)
		return false
	}

	slog.Info("POS ratios updated successfully", "count", len(catalog))

	return true
}

func (s *Store) load(ctx context.Context) ([]entities.PosRatio, []byte, error) {
	const op = "ratios.load"

	data, err := s.snapshot.Read(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, op)
	}

	catalog, err := DecodeCatalog(data, s.currencies)
	if err != nil {
		return nil, nil, errors.Wrap(err, op)
	}

	return catalog, data, nil
}

func (s *Store) snapshotIs(ctx context.Context, data []byte) bool {
	current, err := s.snapshot.Read(ctx)
	if err != nil {
		return false
	}

	return bytes.Equal(current, data)
}

// DecodeCatalog parses a JSON array of ratios. Records that cannot be decoded
// or fail validation are skipped with a warning. A payload that is not
// an array yields entities.ErrInvalidPayload. When currencies is non-empty,
// records in other currencies are skipped as well.
func DecodeCatalog(data []byte, currencies []string) ([]entities.PosRatio, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidPayload, err)
	}

	if raw == nil {
		return nil, entities.ErrInvalidPayload
	}

	catalog := make([]entities.PosRatio, 0, len(raw))
	for i, item := range raw {
		var ratio entities.PosRatio
		if err := json.Unmarshal(item, &ratio); err != nil {
			slog.Warn("Skipping undecodable POS ratio", "index", i, "error", err)
			continue
		}

		if err := ratio.Validate(); err != nil {
			slog.Warn("Skipping invalid POS ratio", "index", i, "pos_name", ratio.PosName, "error", err)
			continue
		}

		if len(currencies) > 0 && !slices.Contains(currencies, ratio.Currency) {
			slog.Warn("Skipping POS ratio in unsupported currency", "index", i, "pos_name", ratio.PosName, "currency", ratio.Currency)
			continue
		}

		catalog = append(catalog, ratio)
	}

	return catalog, nil
}
