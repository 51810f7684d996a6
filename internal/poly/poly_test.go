package poly

import (
	"testing"

	"github.com/optable/oblivious/internal/bitmatrix"
	"github.com/stretchr/testify/require"
)

const k = 256

func random(t testing.TB, n int) *bitmatrix.BitVector {
	v, err := bitmatrix.RandomBitVector(n)
	require.NoError(t, err)
	return v
}

func product(t testing.TB, a, b *bitmatrix.BitVector) *bitmatrix.BitVector {
	d := New(a.Len())
	require.NoError(t, Mul(d, a, b))
	return d
}

func TestClmul64(t *testing.T) {
	hi, lo := clmul64(3, 3) // (1+x)^2 = 1+x^2
	require.Equal(t, uint64(0), hi)
	require.Equal(t, uint64(5), lo)

	hi, lo = clmul64(1<<63, 2) // x^63 · x = x^64
	require.Equal(t, uint64(1), hi)
	require.Equal(t, uint64(0), lo)
}

func TestMulSmall(t *testing.T) {
	a := New(k)
	a.Set(0, true)
	a.Set(1, true)
	d := product(t, a, a)

	want := New(k)
	want.Set(0, true)
	want.Set(2, true)
	require.True(t, Equal(d, want))
}

func TestMulCarriesAcrossWords(t *testing.T) {
	a, b := New(k), New(k)
	a.Set(63, true)
	b.Set(65, true)
	d := product(t, a, b)

	want := New(k)
	want.Set(128, true)
	require.True(t, Equal(d, want))
}

func TestMulTruncates(t *testing.T) {
	a, b := New(k), New(k)
	a.Set(k-1, true)
	b.Set(1, true)
	require.True(t, Equal(product(t, a, b), New(k)))

	// truncation also holds for lengths that are not whole words
	a, b = New(100), New(100)
	a.Set(60, true)
	b.Set(45, true)
	require.True(t, Equal(product(t, a, b), New(100)))
}

func TestMulOne(t *testing.T) {
	one := New(k)
	one.Set(0, true)
	a := random(t, k)
	require.True(t, Equal(product(t, a, one), a))
	require.True(t, Equal(product(t, one, a), a))
}

func TestMulCommutes(t *testing.T) {
	a, b := random(t, k), random(t, k)
	require.True(t, Equal(product(t, a, b), product(t, b, a)))
}

func TestMulBilinear(t *testing.T) {
	for i := 0; i < 20; i++ {
		a, b, c := random(t, k), random(t, k), random(t, k)

		bc := b.Clone()
		require.NoError(t, Accumulate(bc, c))
		lhs := product(t, a, bc)

		rhs := New(k)
		require.NoError(t, Mul(rhs, a, b))
		require.NoError(t, Mul(rhs, a, c))

		require.True(t, Equal(lhs, rhs))
	}
}

func TestAccumulate(t *testing.T) {
	a, b, c := random(t, k), random(t, k), random(t, k)

	// (a + b) + c
	l := a.Clone()
	require.NoError(t, Accumulate(l, b))
	require.NoError(t, Accumulate(l, c))

	// a + (c + b)
	r := c.Clone()
	require.NoError(t, Accumulate(r, b))
	require.NoError(t, Accumulate(r, a))
	require.True(t, Equal(l, r))

	// a + a = 0
	require.NoError(t, Accumulate(a, a.Clone()))
	require.True(t, Equal(a, New(k)))
}

func TestZero(t *testing.T) {
	a := random(t, k)
	Zero(a)
	require.True(t, Equal(a, New(k)))
}

func TestLengthMismatch(t *testing.T) {
	require.ErrorIs(t, Mul(New(k), New(k), New(k-64)), bitmatrix.ErrLengthMismatch)
	require.ErrorIs(t, Accumulate(New(k), New(64)), bitmatrix.ErrLengthMismatch)
}

func BenchmarkMul(b *testing.B) {
	x, y := random(b, k), random(b, k)
	d := New(k)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Zero(d)
		Mul(d, x, y)
	}
}
