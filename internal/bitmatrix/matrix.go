package bitmatrix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/oblivious/internal/util"
)

// A BitMatrix is a sequence of rows of equal bit length.
type BitMatrix struct {
	rows []*BitVector
	cols int
}

// NewBitMatrix assembles rows into a matrix. The rows are not copied.
func NewBitMatrix(rows []*BitVector) (*BitMatrix, error) {
	m := &BitMatrix{rows: rows}
	if len(rows) > 0 {
		m.cols = rows[0].Len()
	}
	for _, r := range rows {
		if r.Len() != m.cols {
			return nil, ErrLengthMismatch
		}
	}
	return m, nil
}

// Zeros returns a rows x cols zero matrix.
func Zeros(rows, cols int) *BitMatrix {
	m := &BitMatrix{rows: make([]*BitVector, rows), cols: cols}
	for i := range m.rows {
		m.rows[i] = NewBitVector(cols)
	}
	return m
}

// RandomBitMatrix samples a rows x cols matrix of uniform bits.
func RandomBitMatrix(rows, cols int) (*BitMatrix, error) {
	m := &BitMatrix{rows: make([]*BitVector, rows), cols: cols}
	for i := range m.rows {
		r, err := RandomBitVector(cols)
		if err != nil {
			return nil, err
		}
		m.rows[i] = r
	}
	return m, nil
}

// Dims returns the number of rows and columns.
func (m *BitMatrix) Dims() (rows, cols int) {
	return len(m.rows), m.cols
}

// Row returns row i. Modifying it modifies the matrix.
func (m *BitMatrix) Row(i int) *BitVector {
	return m.rows[i]
}

// Rows returns the rows of m.
func (m *BitMatrix) Rows() []*BitVector {
	return m.rows
}

// Equal reports whether m and a have the same shape and bits.
func (m *BitMatrix) Equal(a *BitMatrix) bool {
	if len(m.rows) != len(a.rows) || m.cols != a.cols {
		return false
	}
	for i := range m.rows {
		if !m.rows[i].Equal(a.rows[i]) {
			return false
		}
	}
	return true
}

// Transpose returns a new matrix whose row i is column i of m. Shapes with
// both dimensions a multiple of 64 go through the concurrent block
// transpose, any other shape is transposed bit by bit.
func (m *BitMatrix) Transpose() *BitMatrix {
	rows, cols := m.Dims()
	if rows > 0 && cols > 0 && rows%64 == 0 && cols%64 == 0 {
		words := make([][]uint64, rows)
		for i, r := range m.rows {
			words[i] = r.Words()
		}
		trans := util.ConcurrentTranspose(words)
		t := &BitMatrix{rows: make([]*BitVector, cols), cols: rows}
		for i := range trans {
			t.rows[i] = fromSet(bitset.From(trans[i]), rows)
		}
		return t
	}

	t := Zeros(cols, rows)
	for i, r := range m.rows {
		for j := 0; j < cols; j++ {
			if r.bits.Test(uint(j)) {
				t.rows[j].bits.Set(uint(i))
			}
		}
	}
	return t
}

// MarshalBinary encodes the row and column counts as big-endian uint64s
// followed by each row in its own length-prefixed encoding.
func (m *BitMatrix) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(16 + len(m.rows)*vectorEncodedSize(m.cols))

	var hdr [16]byte
	binary.BigEndian.PutUint64(hdr[:8], uint64(len(m.rows)))
	binary.BigEndian.PutUint64(hdr[8:], uint64(m.cols))
	buf.Write(hdr[:])

	for _, r := range m.rows {
		if _, err := r.bits.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a matrix produced by MarshalBinary. The total size
// implied by the header must match the data exactly.
func (m *BitMatrix) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return errors.New("bit matrix encoding too short")
	}
	rows := binary.BigEndian.Uint64(data[:8])
	cols := binary.BigEndian.Uint64(data[8:16])
	if cols > maxBits || rows > maxBits {
		return fmt.Errorf("bit matrix of %dx%d too large", rows, cols)
	}
	rowSize := uint64(vectorEncodedSize(int(cols)))
	if uint64(len(data)-16)/rowSize < rows || uint64(len(data)-16) != rows*rowSize {
		return fmt.Errorf("bit matrix of %dx%d encoded in %d bytes", rows, cols, len(data))
	}

	out := &BitMatrix{rows: make([]*BitVector, rows), cols: int(cols)}
	for i := range out.rows {
		v := new(BitVector)
		off := 16 + uint64(i)*rowSize
		if err := v.UnmarshalBinary(data[off : off+rowSize]); err != nil {
			return err
		}
		if v.Len() != int(cols) {
			return fmt.Errorf("row %d has %d bits, expected %d", i, v.Len(), cols)
		}
		out.rows[i] = v
	}
	*m = *out
	return nil
}
