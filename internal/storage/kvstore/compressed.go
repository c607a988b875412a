package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// Value frame tags. Every value written through WithCompression starts
// with one tag byte; compressed frames carry the original length as a
// uvarint so decompression allocates exactly once.
const (
	frameRaw        = 0x00
	frameCompressed = 0x01
)

// MinCompressSize is the smallest value worth compressing. Below it the
// frame overhead outweighs any gain.
const MinCompressSize = 128

// WithCompression wraps db so values at least MinCompressSize long are
// stored compressed when they shrink. Keys are left alone, so range
// iteration is unaffected.
func WithCompression(db DB, compressor string) (DB, error) {
	c, err := ForName(compressor)
	if err != nil {
		return nil, err
	}
	return &compressedDB{inner: db, comp: c}, nil
}

type compressedDB struct {
	inner DB
	comp  Compressor
}

var _ DB = (*compressedDB)(nil)

func (c *compressedDB) encode(value []byte) []byte {
	if len(value) >= MinCompressSize {
		if block := c.comp.Compress(value); block != nil {
			frame := make([]byte, 1+binary.MaxVarintLen64+len(block))
			frame[0] = frameCompressed
			n := binary.PutUvarint(frame[1:], uint64(len(value)))
			m := copy(frame[1+n:], block)
			return frame[:1+n+m]
		}
	}
	frame := make([]byte, 1+len(value))
	frame[0] = frameRaw
	copy(frame[1:], value)
	return frame
}

func (c *compressedDB) decode(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, errors.New("kvstore: empty value frame")
	}
	switch frame[0] {
	case frameRaw:
		out := make([]byte, len(frame)-1)
		copy(out, frame[1:])
		return out, nil
	case frameCompressed:
		origLen, n := binary.Uvarint(frame[1:])
		if n <= 0 {
			return nil, errors.New("kvstore: corrupt compressed frame")
		}
		return c.comp.Decompress(frame[1+n:], int(origLen))
	default:
		return nil, fmt.Errorf("kvstore: unknown value frame tag 0x%02x", frame[0])
	}
}

func (c *compressedDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	frame, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.decode(frame)
}

func (c *compressedDB) Put(ctx context.Context, key, value []byte) error {
	return c.inner.Put(ctx, key, c.encode(value))
}

func (c *compressedDB) Delete(ctx context.Context, key []byte) error {
	return c.inner.Delete(ctx, key)
}

func (c *compressedDB) Batch(ctx context.Context, ops []BatchOperation) error {
	encoded := make([]BatchOperation, len(ops))
	for i, op := range ops {
		encoded[i] = op
		if op.Type == BatchPut {
			encoded[i].Value = c.encode(op.Value)
		}
	}
	return c.inner.Batch(ctx, encoded)
}

func (c *compressedDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	it, err := c.inner.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &compressedIterator{it: it, db: c}, nil
}

func (c *compressedDB) Close() error {
	return c.inner.Close()
}

type compressedIterator struct {
	it    Iterator
	db    *compressedDB
	value []byte
	err   error
}

func (it *compressedIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.it.Next() {
		it.value = nil
		return false
	}
	v, err := it.db.decode(it.it.Value())
	if err != nil {
		it.err = err
		it.value = nil
		return false
	}
	it.value = v
	return true
}

func (it *compressedIterator) Key() []byte   { return it.it.Key() }
func (it *compressedIterator) Value() []byte { return it.value }

func (it *compressedIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.it.Error()
}

func (it *compressedIterator) Close() error { return it.it.Close() }
