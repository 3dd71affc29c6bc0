package store

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store is closed")

// KVStore is durable storage for opaque values addressed by key.
// Get reports false when the key has never been written.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// BatchSetter is implemented by backends that can write several keys in one
// atomic step.
type BatchSetter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}
