package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
)

// PebbleDB persists through cockroachdb/pebble. Single writes sync the
// WAL; batches commit with one sync at the end.
type PebbleDB struct {
	db     *pebble.DB
	closed atomic.Bool
}

var _ DB = (*PebbleDB)(nil)

// OpenPebble opens (or creates) a pebble store at path.
func OpenPebble(path string) (*PebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvstore: open pebble at %s: %w", path, err)
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	v, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("kvstore: pebble get: %w", err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, fmt.Errorf("kvstore: pebble get close: %w", cerr)
	}
	return out, nil
}

func (p *PebbleDB) Put(ctx context.Context, key, value []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleDB) Delete(ctx context.Context, key []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if p.closed.Load() {
		return ErrClosed
	}
	b := p.db.NewBatch()
	defer b.Close()
	for _, op := range ops {
		var err error
		switch op.Type {
		case BatchPut:
			err = b.Set(op.Key, op.Value, nil)
		case BatchDelete:
			err = b.Delete(op.Key, nil)
		default:
			return fmt.Errorf("kvstore: unknown batch op %d", op.Type)
		}
		if err != nil {
			return fmt.Errorf("kvstore: pebble batch: %w", err)
		}
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, fmt.Errorf("kvstore: pebble iterator: %w", err)
	}
	return &pebbleIterator{it: it}, nil
}

func (p *PebbleDB) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
	key     []byte
	value   []byte
}

func (it *pebbleIterator) Next() bool {
	var ok bool
	if !it.started {
		it.started = true
		ok = it.it.First()
	} else {
		ok = it.it.Next()
	}
	if !ok {
		it.key, it.value = nil, nil
		return false
	}
	// Pebble's buffers are only valid until the next positioning call.
	it.key = append(it.key[:0], it.it.Key()...)
	it.value = append(it.value[:0], it.it.Value()...)
	return true
}

func (it *pebbleIterator) Key() []byte   { return it.key }
func (it *pebbleIterator) Value() []byte { return it.value }
func (it *pebbleIterator) Error() error  { return it.it.Error() }
func (it *pebbleIterator) Close() error  { return it.it.Close() }
