package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	Blake3    = "blake3"
	SHA256    = "sha256"
	SHA3      = "sha3-256"
	Blake2b   = "blake2b-256"
	KeyLength = 32
)

// KDF derives 32-byte symmetric keys from group elements and matrix rows
// with a fixed 256-bit hash. A KDF is not safe for concurrent use; give
// each worker its own.
type KDF struct {
	h hash.Hash
}

// NewKDF returns a key derivation over the named hash.
func NewKDF(name string) (*KDF, error) {
	var h hash.Hash
	switch name {
	case Blake3:
		h = blake3.New()
	case SHA256:
		h = sha256.New()
	case SHA3:
		h = sha3.New256()
	case Blake2b:
		var err error
		if h, err = blake2b.New256(nil); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported hash %q", name)
	}

	return &KDF{h: h}, nil
}

// Hashes lists the supported hash names.
func Hashes() []string {
	return []string{Blake3, SHA256, SHA3, Blake2b}
}

// PointKey hashes the encoding of p.
func (k *KDF) PointKey(p Point) ([]byte, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}

	k.h.Reset()
	k.h.Write(b)
	return k.h.Sum(nil), nil
}

// RowKey hashes the 8-byte big-endian index followed by row.
func (k *KDF) RowKey(index uint64, row []byte) []byte {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)

	k.h.Reset()
	k.h.Write(idx[:])
	k.h.Write(row)
	return k.h.Sum(nil)
}
