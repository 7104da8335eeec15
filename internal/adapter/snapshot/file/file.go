package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
)

type Storage struct {
	path string
}

func NewStorage(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Read(_ context.Context) ([]byte, error) {
	const op = "snapshot.file.Read"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, entities.ErrSnapshotNotFound
		}
		return nil, errors.Wrap(err, op)
	}

	return data, nil
}

// Write replaces the snapshot atomically: readers see either the old file or
// the new one, never a partial write.
func (s *Storage) Write(_ context.Context, data []byte) error {
	const op = "snapshot.file.Write"

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, op)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, op)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, op)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, op)
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, op)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(err, op)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
