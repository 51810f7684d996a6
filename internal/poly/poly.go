// Package poly implements the arithmetic of polynomials over GF(2)
// truncated to k coefficients, stored in bit vectors where bit i is the
// coefficient of x^i. The product is taken mod x^k, which keeps it bilinear
// without a field reduction.
package poly

import (
	"github.com/optable/oblivious/internal/bitmatrix"
	"github.com/optable/oblivious/internal/util"
)

// New returns the zero polynomial with k coefficients.
func New(k int) *bitmatrix.BitVector {
	return bitmatrix.NewBitVector(k)
}

// Zero clears p.
func Zero(p *bitmatrix.BitVector) {
	w := p.Words()
	for i := range w {
		w[i] = 0
	}
}

// Accumulate sets dst to dst + a.
func Accumulate(dst, a *bitmatrix.BitVector) error {
	return dst.Xor(a)
}

// Mul adds a·b mod x^k to dst. Callers computing a plain product zero dst
// first.
func Mul(dst, a, b *bitmatrix.BitVector) error {
	if dst.Len() != a.Len() || dst.Len() != b.Len() {
		return bitmatrix.ErrLengthMismatch
	}

	d, x, y := dst.Words(), a.Words(), b.Words()
	n := len(d)
	for i := 0; i < n; i++ {
		if x[i] == 0 {
			continue
		}
		for j := 0; i+j < n; j++ {
			hi, lo := clmul64(x[i], y[j])
			d[i+j] ^= lo
			if i+j+1 < n {
				d[i+j+1] ^= hi
			}
		}
	}

	if n > 0 {
		d[n-1] &= util.LastWordMask(dst.Len())
	}
	return nil
}

// Equal reports whether a and b are the same polynomial.
func Equal(a, b *bitmatrix.BitVector) bool {
	return a.Equal(b)
}

// clmul64 returns the 128-bit carry-less product of a and b.
func clmul64(a, b uint64) (hi, lo uint64) {
	for i := uint(0); i < 64; i++ {
		if (a>>i)&1 == 1 {
			lo ^= b << i
			hi ^= b >> (64 - i)
		}
	}
	return
}
