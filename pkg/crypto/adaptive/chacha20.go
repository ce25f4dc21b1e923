package adaptive

import (
	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20 implements ChaCha20-Poly1305 authenticated encryption.
type ChaCha20 struct {
	baseCipher
}

// NewChaCha20 creates a new ChaCha20-Poly1305 cipher.
//
// Key must be exactly 32 bytes.
func NewChaCha20(key []byte) (*ChaCha20, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &ChaCha20{
		baseCipher: baseCipher{aead: aead},
	}, nil
}

// Type returns the cipher type.
func (c *ChaCha20) Type() CipherType {
	return CipherChaCha20
}

// Seal encrypts plaintext with additional data.
func (c *ChaCha20) Seal(nonce, plaintext, additionalData []byte) ([]byte, error) {
	return c.seal(nonce, plaintext, additionalData)
}

// Open decrypts ciphertext with additional data.
func (c *ChaCha20) Open(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	return c.open(nonce, ciphertext, additionalData)
}
