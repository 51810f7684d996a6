package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

const (
	PRGBlake3   = "blake3"
	PRGAESCtr   = "aes-ctr"
	PRGChaCha20 = "chacha20"

	SeedLength = 32
)

var zeroNonce = make([]byte, chacha20.NonceSize)

// PRG stretches a 32-byte seed into an arbitrary amount of pseudorandom
// bytes. A PRG is not safe for concurrent use; give each worker its own.
type PRG interface {
	// Expand fills dst with the stream keyed by seed, starting from the
	// beginning of the stream.
	Expand(dst []byte, seed *[SeedLength]byte) error
}

// NewPRG returns the named generator.
func NewPRG(name string) (PRG, error) {
	switch name {
	case PRGBlake3:
		return &blake3PRG{h: blake3.New()}, nil
	case PRGAESCtr:
		return aesCtrPRG{}, nil
	case PRGChaCha20:
		return chachaPRG{}, nil
	default:
		return nil, fmt.Errorf("unsupported prg %q", name)
	}
}

// PRGs lists the supported generator names.
func PRGs() []string {
	return []string{PRGBlake3, PRGAESCtr, PRGChaCha20}
}

// blake3PRG is a deterministic random bit generator reading the blake3
// extendable output of the seed.
type blake3PRG struct {
	h *blake3.Hasher
}

func (p *blake3PRG) Expand(dst []byte, seed *[SeedLength]byte) error {
	// reset internal state
	p.h.Reset()
	if _, err := p.h.Write(seed[:]); err != nil {
		return err
	}

	_, err := p.h.Digest().Read(dst)
	return err
}

// aesCtrPRG encrypts zeros in counter mode under AES-256 keyed by the seed.
type aesCtrPRG struct{}

func (aesCtrPRG) Expand(dst []byte, seed *[SeedLength]byte) error {
	block, err := aes.NewCipher(seed[:])
	if err != nil {
		return err
	}

	var iv [aes.BlockSize]byte
	for i := range dst {
		dst[i] = 0
	}
	cipher.NewCTR(block, iv[:]).XORKeyStream(dst, dst)
	return nil
}

// chachaPRG reads the ChaCha20 keystream of the seed under the zero nonce.
type chachaPRG struct{}

func (chachaPRG) Expand(dst []byte, seed *[SeedLength]byte) error {
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], zeroNonce)
	if err != nil {
		return err
	}

	for i := range dst {
		dst[i] = 0
	}
	c.XORKeyStream(dst, dst)
	return nil
}

// SeedFromBytes copies b into a seed. b must be exactly SeedLength bytes.
func SeedFromBytes(b []byte) (seed [SeedLength]byte, err error) {
	if len(b) != SeedLength {
		return seed, fmt.Errorf("seed of %d bytes, expected %d", len(b), SeedLength)
	}
	copy(seed[:], b)
	return seed, nil
}
