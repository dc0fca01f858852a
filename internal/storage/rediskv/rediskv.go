package rediskv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store keeps collection blobs in Redis without expiry.
type Store struct {
	c      *redis.Client
	prefix string
}

func New(addr string) *Store {
	return &Store{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

// WithPrefix namespaces every key, e.g. "parceldesk:".
func (s *Store) WithPrefix(prefix string) *Store {
	s.prefix = prefix
	return s
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.c.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.c.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

func (s *Store) Close() error {
	return s.c.Close()
}
