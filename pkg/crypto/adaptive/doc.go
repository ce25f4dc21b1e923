// Package adaptive provides the authenticated ciphers used to seal backups.
//
// Supported Algorithms:
//
//   - AES-256-GCM: default for backup artifacts
//   - ChaCha20-Poly1305: alternative for hosts without AES hardware support
//
// Nonces are explicit: the caller generates one with NewNonce for every
// Seal and stores it next to the ciphertext. Open verifies the
// authentication tag before any plaintext is returned and reports every
// failure as ErrAuthentication.
//
// Usage:
//
//	c, err := adaptive.NewWithType(key, adaptive.CipherAESGCM)
//	nonce, err := adaptive.NewNonce(c)
//	sealed, err := c.Seal(nonce, plaintext, nil)
//	plaintext, err := c.Open(nonce, sealed, nil)
package adaptive
