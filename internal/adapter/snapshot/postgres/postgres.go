package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
)

const snapshotID = 1

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{db: pool}
}

// New connects to Postgres and applies pending migrations.
func New(ctx context.Context, databaseURL string, timeout time.Duration) (*Storage, error) {
	const op = "snapshot.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse config failed: %w", op, err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: pgxpool connect failed: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	if err := RunMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	slog.Info("PostgresSQL snapshot storage initialized successfully")

	return NewStorage(pool), nil
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) Read(ctx context.Context) ([]byte, error) {
	const op = "snapshot.postgres.Read"

	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM pos_ratio_snapshots WHERE id = $1`, snapshotID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrSnapshotNotFound
		}
		return nil, errors.Wrap(err, op)
	}

	return payload, nil
}

// Write replaces the single snapshot row in one statement.
func (s *Storage) Write(ctx context.Context, data []byte) error {
	const op = "snapshot.postgres.Write"

	_, err := s.db.Exec(ctx, `
		INSERT INTO pos_ratio_snapshots (id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, snapshotID, data)
	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
