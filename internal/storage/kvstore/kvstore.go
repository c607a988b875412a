// Package kvstore is the key-value layer the daemon persists through:
// one small interface with pebble, goleveldb and in-memory backends,
// plus optional transparent value compression. The state store sits on
// top of it; backends are chosen by configuration.
package kvstore

import (
	"context"
	"errors"
)

var (
	ErrClosed      = errors.New("kvstore: closed")
	ErrKeyNotFound = errors.New("kvstore: key not found")
)

// DB is the storage surface the state store needs. Implementations
// return copies; callers may reuse their buffers.
type DB interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies the operations atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end) ascending. A nil start begins
	// at the first key; a nil end stops after the last.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	Close() error
}

// Iterator traverses a key range. Next must be called before the first
// Key/Value access.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is a single write inside an atomic batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

// PrefixRange returns the [start, end) bounds covering every key that
// begins with prefix. The end bound is nil when the prefix is all 0xff
// and the range is unbounded above.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = append([]byte(nil), prefix...)
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xff {
			end = append([]byte(nil), prefix[:i+1]...)
			end[i]++
			return start, end
		}
	}
	return start, nil
}
