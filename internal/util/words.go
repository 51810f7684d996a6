package util

import "fmt"

var ErrByteLengthMissMatch = fmt.Errorf("byte length is not a multiple of the word size")

// WordsNeeded returns the number of 64-bit words holding n bits.
func WordsNeeded(n int) int {
	return (n + 63) / 64
}

// LastWordMask returns the mask of the valid bits in the last word of an
// n-bit vector.
func LastWordMask(n int) uint64 {
	if n%64 == 0 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n%64)) - 1
}
