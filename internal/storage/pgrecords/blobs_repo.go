package pgrecords

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Get returns the blob stored under key. A missing row is (nil, false, nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM record_blobs WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select blob")
	}
	return value, true, nil
}

// Set upserts the whole blob. value must be valid JSON.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.Errorf("blob %q is not valid json", key)
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO record_blobs (key, value, updated_at)
VALUES ($1, $2::jsonb, $3)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, key, string(value), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "upsert blob")
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *Storage) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var at time.Time
	err := s.db.QueryRow(ctx, `SELECT updated_at FROM record_blobs WHERE key = $1`, key).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "select updated_at")
	}
	return at, true, nil
}
