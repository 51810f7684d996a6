package util

// blockWidth is the side of the square bit block transposed in registers.
const blockWidth = 64

// ConcurrentTranspose transposes a bit matrix held as rows of uint64 words,
// least significant bit first. The matrix has len(matrix) rows and
// 64*len(matrix[0]) columns; both dimensions must be multiples of 64, panic
// otherwise. The matrix is cut into 64x64 blocks, and the block columns are
// divided among the workers. Each worker loads a block into a scratch array,
// transposes it with mask and shift swaps and writes it to its mirrored
// position in the output. Workers write disjoint output rows, so no locking
// is needed.
func ConcurrentTranspose(matrix [][]uint64) [][]uint64 {
	if len(matrix) == 0 || len(matrix)%blockWidth != 0 {
		panic("rows of input matrix not a multiple of 64")
	}

	rowBlocks := len(matrix) / blockWidth
	colBlocks := len(matrix[0])
	for _, row := range matrix {
		if len(row) != colBlocks {
			panic("input matrix rows have different lengths")
		}
	}

	// build output matrix
	trans := make([][]uint64, colBlocks*blockWidth)
	for r := range trans {
		trans[r] = make([]uint64, rowBlocks)
	}

	// the workers only fail on a panic, which is not recovered
	_ = ConcurrentRange(colBlocks, func(lo, hi int) error {
		var b [blockWidth]uint64
		for j := lo; j < hi; j++ {
			for i := 0; i < rowBlocks; i++ {
				for r := 0; r < blockWidth; r++ {
					b[r] = matrix[i*blockWidth+r][j]
				}
				transpose64(&b)
				for c := 0; c < blockWidth; c++ {
					trans[j*blockWidth+c][i] = b[c]
				}
			}
		}
		return nil
	})

	return trans
}

// swap exchanges the masked high bits of row a with the low bits of row b,
// width apart.
func swap(blk *[blockWidth]uint64, a, b int, mask uint64, width int) {
	t := (blk[a] ^ (blk[b] << width)) & mask
	blk[a] ^= t
	blk[b] ^= t >> width
}

// transpose64 performs an in-place bitwise transpose of a 64x64 bit block.
// It swaps 32x32 quadrants about the diagonal, then 16x16 sub-blocks within
// each quadrant and so on down to single bits.
func transpose64(blk *[blockWidth]uint64) {
	var mask uint64 = 0xFFFFFFFF00000000
	for width := 32; width != 0; {
		for i := 0; i < blockWidth; i += 2 * width {
			for j := i; j < i+width; j++ {
				swap(blk, j, j+width, mask, width)
			}
		}
		width >>= 1
		mask ^= mask >> width
	}
}
