package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
)

// AESGCM implements AES-256-GCM authenticated encryption.
type AESGCM struct {
	baseCipher
}

// NewAESGCM creates a new AES-256-GCM cipher. Key must be exactly 32 bytes.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AESGCM{
		baseCipher: baseCipher{aead: aead},
	}, nil
}

// Type returns the cipher type.
func (c *AESGCM) Type() CipherType {
	return CipherAESGCM
}

// Seal encrypts plaintext with additional data.
func (c *AESGCM) Seal(nonce, plaintext, additionalData []byte) ([]byte, error) {
	return c.seal(nonce, plaintext, additionalData)
}

// Open decrypts ciphertext with additional data.
func (c *AESGCM) Open(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	return c.open(nonce, ciphertext, additionalData)
}
