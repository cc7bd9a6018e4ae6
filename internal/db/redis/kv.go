package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecscope/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, db.ErrInvalidKey
	}
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set replaces the value at key. A single SET is atomic for readers.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return db.ErrInvalidKey
	}
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
