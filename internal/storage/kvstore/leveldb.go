package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB persists through syndtr/goleveldb. Lighter than pebble for
// small single-node deployments.
type LevelDB struct {
	db     *leveldb.DB
	closed atomic.Bool
}

var _ DB = (*LevelDB)(nil)

// OpenLevelDB opens (or creates) a leveldb store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open leveldb at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	v, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("kvstore: leveldb get: %w", err)
	}
	return v, nil
}

func (l *LevelDB) Put(ctx context.Context, key, value []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(ctx context.Context, key []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return l.db.Delete(key, nil)
}

func (l *LevelDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if l.closed.Load() {
		return ErrClosed
	}
	b := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			b.Put(op.Key, op.Value)
		case BatchDelete:
			b.Delete(op.Key)
		default:
			return fmt.Errorf("kvstore: unknown batch op %d", op.Type)
		}
	}
	return l.db.Write(b, nil)
}

func (l *LevelDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &levelIterator{it: it}, nil
}

func (l *LevelDB) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.db.Close()
}

type levelIterator struct {
	it    iteratorReleaser
	key   []byte
	value []byte
}

// iteratorReleaser is the slice of goleveldb's iterator the wrapper
// uses; goleveldb releases rather than closes.
type iteratorReleaser interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (it *levelIterator) Next() bool {
	if !it.it.Next() {
		it.key, it.value = nil, nil
		return false
	}
	// goleveldb reuses its buffers between calls.
	it.key = append(it.key[:0], it.it.Key()...)
	it.value = append(it.value[:0], it.it.Value()...)
	return true
}

func (it *levelIterator) Key() []byte   { return it.key }
func (it *levelIterator) Value() []byte { return it.value }
func (it *levelIterator) Error() error  { return it.it.Error() }

func (it *levelIterator) Close() error {
	it.it.Release()
	return it.it.Error()
}
