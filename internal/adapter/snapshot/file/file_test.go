package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/langowen/posratio/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_ReadMissing(t *testing.T) {
	s := NewStorage(filepath.Join(t.TempDir(), "pos_ratios.json"))

	_, err := s.Read(context.Background())

	assert.ErrorIs(t, err, entities.ErrSnapshotNotFound)
}

func TestStorage_WriteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage", "pos_ratios.json")
	s := NewStorage(path)

	require.NoError(t, s.Write(context.Background(), []byte(`[]`)))

	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStorage_WriteReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage(filepath.Join(dir, "pos_ratios.json"))

	require.NoError(t, s.Write(context.Background(), []byte(`[{"pos_name":"old"}]`)))
	require.NoError(t, s.Write(context.Background(), []byte(`[{"pos_name":"new"}]`)))

	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"pos_name":"new"}]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pos_ratios.json", entries[0].Name())
}
