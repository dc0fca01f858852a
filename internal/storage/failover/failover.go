package failover

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"
)

// KV is the blob contract shared by every backend.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store prefers the remote backend and falls back to the local one when the remote fails.
// Writes that fail remotely land locally; nothing is replayed when the remote comes back.
type Store struct {
	remote KV
	local  KV

	fallbacks atomic.Int64
}

func New(remote, local KV) *Store {
	return &Store{remote: remote, local: local}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := s.remote.Get(ctx, key)
	if err == nil {
		return b, ok, nil
	}
	s.fallbacks.Add(1)
	slog.Warn("remote read failed, using local", "key", key, "error", err.Error())

	b, ok, lerr := s.local.Get(ctx, key)
	if lerr != nil {
		return nil, false, errors.Wrap(lerr, "local fallback read")
	}
	return b, ok, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.remote.Set(ctx, key, value)
	if err == nil {
		return nil
	}
	s.fallbacks.Add(1)
	slog.Warn("remote write failed, using local", "key", key, "error", err.Error())

	if lerr := s.local.Set(ctx, key, value); lerr != nil {
		return errors.Wrap(lerr, "local fallback write")
	}
	return nil
}

// Fallbacks counts operations served by the local backend.
func (s *Store) Fallbacks() int64 {
	return s.fallbacks.Load()
}
