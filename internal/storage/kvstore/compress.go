package kvstore

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4"
)

// Compressor turns a value into a smaller block and back. Compress may
// return nil to signal the input did not shrink; the caller then stores
// it raw.
type Compressor interface {
	Name() string
	Compress(src []byte) []byte
	Decompress(src []byte, originalLen int) ([]byte, error)
}

var (
	regMu       sync.RWMutex
	compressors = make(map[string]func() Compressor)
)

// RegisterCompressor makes a compressor available to WithCompression
// under the given name.
func RegisterCompressor(name string, factory func() Compressor) {
	regMu.Lock()
	defer regMu.Unlock()
	compressors[name] = factory
}

// ForName returns a new compressor instance by registry name.
func ForName(name string) (Compressor, error) {
	regMu.RLock()
	factory, ok := compressors[name]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kvstore: unknown compressor %q", name)
	}
	return factory(), nil
}

func init() {
	RegisterCompressor("none", func() Compressor { return noCompressor{} })
	RegisterCompressor("lz4", func() Compressor { return lz4Compressor{} })
}

// noCompressor stores everything raw.
type noCompressor struct{}

func (noCompressor) Name() string            { return "none" }
func (noCompressor) Compress(_ []byte) []byte { return nil }
func (noCompressor) Decompress(_ []byte, _ int) ([]byte, error) {
	return nil, fmt.Errorf("kvstore: none compressor cannot decompress")
}

// lz4Compressor block-compresses values.
type lz4Compressor struct{}

func (lz4Compressor) Name() string { return "lz4" }

func (lz4Compressor) Compress(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	// n == 0 means incompressible; store raw in that case too.
	if err != nil || n == 0 || n >= len(src) {
		return nil
	}
	return dst[:n]
}

func (lz4Compressor) Decompress(src []byte, originalLen int) ([]byte, error) {
	dst := make([]byte, originalLen)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("kvstore: lz4 decompress: %w", err)
	}
	if n != originalLen {
		return nil, fmt.Errorf("kvstore: lz4 length mismatch: got %d want %d", n, originalLen)
	}
	return dst, nil
}
