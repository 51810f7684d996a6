package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

/*
Authenticated encryption under one-time keys
*/

const (
	AESGCM           = "aes-gcm"
	ChaCha20Poly1305 = "chacha20-poly1305"

	nonceSize = 12
)

// uniqueNonce is the public nonce of every seal. Each key derived by the OT
// protocols encrypts exactly one plaintext, so the pair (key, nonce) never
// repeats.
var uniqueNonce = []byte("unique nonce")

// Cipher seals and opens messages under 32-byte one-time keys.
type Cipher struct {
	name string
	new  func(key []byte) (cipher.AEAD, error)
}

// NewCipher returns the named AEAD suite.
func NewCipher(name string) (*Cipher, error) {
	switch name {
	case AESGCM:
		return &Cipher{name: name, new: newGCM}, nil
	case ChaCha20Poly1305:
		return &Cipher{name: name, new: chacha20poly1305.New}, nil
	default:
		return nil, fmt.Errorf("unsupported cipher %q", name)
	}
}

// Ciphers lists the supported cipher suite names.
func Ciphers() []string {
	return []string{AESGCM, ChaCha20Poly1305}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// Name returns the suite name.
func (c *Cipher) Name() string {
	return c.name
}

// Seal encrypts plaintext under key. key must never be used again.
func (c *Cipher) Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := c.new(key)
	if err != nil {
		return nil, err
	}

	return aead.Seal(nil, uniqueNonce, plaintext, nil), nil
}

// Open authenticates and decrypts ciphertext under key.
func (c *Cipher) Open(key, ciphertext []byte) ([]byte, error) {
	aead, err := c.new(key)
	if err != nil {
		return nil, err
	}

	return aead.Open(nil, uniqueNonce, ciphertext, nil)
}

// Overhead returns the number of bytes a seal adds to its plaintext.
func (c *Cipher) Overhead() int {
	return 16
}
