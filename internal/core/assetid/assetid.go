package assetid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// Size is the size of an asset ID in bytes.
const Size = 20

// AssetID is a 160-bit identifier for a tradable asset, computed as
// RIPEMD160(SHA256(creator || symbol || salt)). Two hash functions are
// chained so that a collision in either alone is not enough to forge
// an ID, and 160 bits keeps rendered IDs short.
type AssetID [Size]byte

var ErrBadLength = errors.New("assetid: hex string must decode to 20 bytes")

// Derive computes the asset ID for a creator, symbol and salt. The
// salt distinguishes repeated launches of the same symbol by the same
// creator.
func Derive(creator, symbol string, salt uint64) AssetID {
	var saltBytes [8]byte
	binary.BigEndian.PutUint64(saltBytes[:], salt)

	h := sha256.New()
	h.Write([]byte(creator))
	h.Write([]byte{0})
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write(saltBytes[:])
	inner := h.Sum(nil)

	outer := ripemd160.New()
	outer.Write(inner)

	var id AssetID
	copy(id[:], outer.Sum(nil))
	return id
}

// FromHex parses a 40-character hex string into an AssetID.
func FromHex(s string) (AssetID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return AssetID{}, fmt.Errorf("assetid: %w", err)
	}
	if len(b) != Size {
		return AssetID{}, ErrBadLength
	}
	var id AssetID
	copy(id[:], b)
	return id, nil
}

// FromBytes creates an AssetID from a byte slice. Returns the zero ID
// if the slice is not exactly 20 bytes.
func FromBytes(b []byte) AssetID {
	var id AssetID
	if len(b) == Size {
		copy(id[:], b)
	}
	return id
}

// IsZero reports whether the ID is all zeros. The zero ID is never a
// valid asset.
func (id AssetID) IsZero() bool {
	for _, b := range id {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes returns the ID as a byte slice.
func (id AssetID) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// String renders the ID as lowercase hex.
func (id AssetID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id AssetID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AssetID) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
