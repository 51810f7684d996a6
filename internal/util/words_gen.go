//go:build !amd64 || generic
// +build !amd64 generic

package util

import (
	"encoding/binary"
)

// BytesFromWords returns the little-endian encoding of w in a fresh
// byte slice.
func BytesFromWords(w []uint64) []byte {
	b := make([]byte, len(w)*8)
	for i := range w {
		binary.LittleEndian.PutUint64(b[i*8:(i+1)*8], w[i])
	}

	return b
}

// WordsFromBytes decodes b as little-endian words into a fresh slice. The
// length of b must be a multiple of 8.
func WordsFromBytes(b []byte) ([]uint64, error) {
	if len(b)%8 != 0 {
		return nil, ErrByteLengthMissMatch
	}

	w := make([]uint64, len(b)/8)
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(b[i*8 : (i+1)*8])
	}

	return w, nil
}
