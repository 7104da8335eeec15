package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/langowen/posratio/deploy/config"
	memoryCache "github.com/langowen/posratio/internal/adapter/cache/memory"
	memoryQueue "github.com/langowen/posratio/internal/adapter/queue/memory"
	"github.com/langowen/posratio/internal/adapter/snapshot/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		Ratios: config.Ratios{
			APIURL:         "http://127.0.0.1:1/ratios",
			APITimeout:     time.Second,
			SnapshotDriver: "file",
			StoragePath:    filepath.Join(t.TempDir(), "pos_ratios.json"),
			CacheDriver:    "memory",
			CacheTTL:       time.Hour,
		},
		Queue: config.Queue{Driver: "memory"},
		Selection: config.Selection{
			SupportedCurrencies: []string{"TRY"},
		},
	}
}

func TestDeps_MemoryDrivers(t *testing.T) {
	d := New(memoryConfig(t))
	defer d.Close()
	ctx := context.Background()

	cache, err := d.Cache(ctx)
	require.NoError(t, err)
	assert.IsType(t, &memoryCache.Cache{}, cache)

	snapshot, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.IsType(t, &file.Storage{}, snapshot)

	pub, err := d.Publisher(ctx)
	require.NoError(t, err)
	consumer, err := d.Consumer(ctx)
	require.NoError(t, err)

	assert.IsType(t, &memoryQueue.Queue{}, pub)
	assert.Same(t, pub, consumer)
}

func TestDeps_StoreWithoutSourceIsEmpty(t *testing.T) {
	d := New(memoryConfig(t))
	defer d.Close()

	store, err := d.Store(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, store.GetAll(context.Background()))
	assert.False(t, store.Refresh(context.Background()))
}
