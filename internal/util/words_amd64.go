//go:build amd64 && !generic
// +build amd64,!generic

package util

import (
	"github.com/alecthomas/unsafeslice"
)

// BytesFromWords returns the little-endian byte view of w. The result
// aliases w, callers must not modify it.
// Only tested on x86-64.
func BytesFromWords(w []uint64) []byte {
	return unsafeslice.ByteSliceFromUint64Slice(w)
}

// WordsFromBytes returns the little-endian word view of b. The length of b
// must be a multiple of 8. The result aliases b.
// Only tested on x86-64.
func WordsFromBytes(b []byte) ([]uint64, error) {
	if len(b)%8 != 0 {
		return nil, ErrByteLengthMissMatch
	}

	return unsafeslice.Uint64SliceFromByteSlice(b), nil
}
