package bitmatrix

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/oblivious/internal/util"
)

var (
	ErrLengthMismatch = errors.New("bit vectors do not have the same length")
	ErrUnaligned      = errors.New("bit length is not a multiple of the word size")
)

// A BitVector is a fixed length sequence of bits packed into 64-bit words,
// least significant bit first. Bits past the length are always zero.
type BitVector struct {
	bits *bitset.BitSet
	n    int
}

// NewBitVector returns a zero vector of n bits.
func NewBitVector(n int) *BitVector {
	if n < 0 {
		panic("negative bit vector length")
	}
	return &BitVector{bits: bitset.New(uint(n)), n: n}
}

// Ones returns a vector of n set bits.
func Ones(n int) *BitVector {
	v := NewBitVector(n)
	w := v.Words()
	for i := range w {
		w[i] = ^uint64(0)
	}
	v.clean()
	return v
}

// RandomBitVector samples n uniformly random bits from crypto/rand.
func RandomBitVector(n int) (*BitVector, error) {
	v := NewBitVector(n)
	w := v.Words()
	buf := make([]byte, len(w)*8)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(buf[i*8 : (i+1)*8])
	}
	v.clean()
	return v, nil
}

// FromBytes returns a vector of 8*len(b) bits where bit i is bit i%8 of
// byte i/8.
func FromBytes(b []byte) *BitVector {
	v := NewBitVector(len(b) * 8)
	w := v.Words()
	full := len(b) / 8 * 8
	if full > 0 {
		src, _ := util.WordsFromBytes(b[:full])
		copy(w, src)
	}
	for i := full; i < len(b); i++ {
		w[i/8] |= uint64(b[i]) << uint(8*(i%8))
	}
	return v
}

// FromBools packs a slice of bools, one bit each.
func FromBools(bs []bool) *BitVector {
	v := NewBitVector(len(bs))
	w := v.Words()
	for i, b := range bs {
		if b {
			w[i/64] |= 1 << uint(i%64)
		}
	}
	return v
}

// fromSet adopts s without copying it.
func fromSet(s *bitset.BitSet, n int) *BitVector {
	return &BitVector{bits: s, n: n}
}

// Len returns the number of bits.
func (v *BitVector) Len() int {
	return v.n
}

// Test returns bit i. It panics when i is out of range.
func (v *BitVector) Test(i int) bool {
	v.check(i)
	return v.bits.Test(uint(i))
}

// Set sets bit i to b. It panics when i is out of range.
func (v *BitVector) Set(i int, b bool) {
	v.check(i)
	v.bits.SetTo(uint(i), b)
}

func (v *BitVector) check(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("bit index %d out of range [0, %d)", i, v.n))
	}
}

// Words returns the backing words. Modifying them modifies the vector.
func (v *BitVector) Words() []uint64 {
	return v.bits.Bytes()[:util.WordsNeeded(v.n)]
}

// Bytes returns a little-endian byte view of the vector. The length must be
// a multiple of 64 bits. The returned bytes may alias the vector and must
// not be modified.
func (v *BitVector) Bytes() ([]byte, error) {
	if v.n%64 != 0 {
		return nil, ErrUnaligned
	}
	return util.BytesFromWords(v.Words()), nil
}

// Bools unpacks the vector.
func (v *BitVector) Bools() []bool {
	bs := make([]bool, v.n)
	for i := range bs {
		bs[i] = v.bits.Test(uint(i))
	}
	return bs
}

// Xor sets v to v ^ a.
func (v *BitVector) Xor(a *BitVector) error {
	if v.n != a.n {
		return ErrLengthMismatch
	}
	v.bits.InPlaceSymmetricDifference(a.bits)
	return nil
}

// And sets v to v & a.
func (v *BitVector) And(a *BitVector) error {
	if v.n != a.n {
		return ErrLengthMismatch
	}
	v.bits.InPlaceIntersection(a.bits)
	return nil
}

// Equal reports whether v and a have the same length and bits.
func (v *BitVector) Equal(a *BitVector) bool {
	return v.n == a.n && v.bits.Equal(a.bits)
}

// Clone returns a deep copy of v.
func (v *BitVector) Clone() *BitVector {
	return &BitVector{bits: v.bits.Clone(), n: v.n}
}

// Count returns the number of set bits.
func (v *BitVector) Count() int {
	return int(v.bits.Count())
}

// clear the bits past the length in the last word
func (v *BitVector) clean() {
	w := v.Words()
	if len(w) > 0 {
		w[len(w)-1] &= util.LastWordMask(v.n)
	}
}

// MarshalBinary encodes the vector as its bit length followed by its words.
func (v *BitVector) MarshalBinary() ([]byte, error) {
	return v.bits.MarshalBinary()
}

// UnmarshalBinary decodes a vector produced by MarshalBinary. The declared
// length is checked against the data size before anything is allocated.
func (v *BitVector) UnmarshalBinary(data []byte) error {
	n, err := encodedLen(data)
	if err != nil {
		return err
	}
	if len(data) != vectorEncodedSize(n) {
		return fmt.Errorf("bit vector of %d bits encoded in %d bytes", n, len(data))
	}

	s := new(bitset.BitSet)
	if err := s.UnmarshalBinary(data); err != nil {
		return err
	}
	*v = BitVector{bits: s, n: n}
	v.clean()
	return nil
}

// vectorEncodedSize is the size of an encoded n-bit vector: the length
// prefix and the words.
func vectorEncodedSize(n int) int {
	return 8 + 8*util.WordsNeeded(n)
}

func encodedLen(data []byte) (int, error) {
	if len(data) < 8 {
		return 0, errors.New("bit vector encoding too short")
	}
	n := binary.BigEndian.Uint64(data[:8])
	if n > maxBits {
		return 0, fmt.Errorf("bit vector length %d too large", n)
	}
	return int(n), nil
}

// maxBits bounds the length of a decoded vector.
const maxBits = 1 << 34
