package snapshot

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
)

const (
	// KDFArgon2id is the only supported key derivation function identifier.
	KDFArgon2id = "argon2id"

	// KeyLength is the derived key length in bytes.
	KeyLength = 32

	// SaltLength is the salt length generated for every export.
	SaltLength = 16

	// MinSaltLength is the shortest salt accepted on import.
	MinSaltLength = 16

	// Default Argon2id cost parameters used at export time.
	DefaultMemoryKiB   = 19 * 1024
	DefaultTime        = 2
	DefaultParallelism = 1

	// Upper bounds reject envelopes that would exhaust memory or CPU.
	maxMemoryKiB   = 4 * 1024 * 1024
	maxTime        = 64
	maxParallelism = 255
)

// KDFParams holds the Argon2id cost parameters.
type KDFParams struct {
	MemoryKiB   uint32 // m_cost
	Time        uint32 // t_cost
	Parallelism uint32 // p_cost
}

// DefaultKDFParams returns the export-time defaults.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		MemoryKiB:   DefaultMemoryKiB,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
	}
}

// Validate reports a crypto error for degenerate or excessive parameters.
func (p KDFParams) Validate() error {
	switch {
	case p.Time < 1 || p.Time > maxTime:
		return domain.ErrBackupCrypto.WithDetails(fmt.Sprintf("kdf t_cost %d out of range [1, %d]", p.Time, maxTime))
	case p.Parallelism < 1 || p.Parallelism > maxParallelism:
		return domain.ErrBackupCrypto.WithDetails(fmt.Sprintf("kdf p_cost %d out of range [1, %d]", p.Parallelism, maxParallelism))
	case p.MemoryKiB < 8*p.Parallelism || p.MemoryKiB > maxMemoryKiB:
		return domain.ErrBackupCrypto.WithDetails(fmt.Sprintf("kdf m_cost %d out of range [%d, %d]",
			p.MemoryKiB, 8*p.Parallelism, maxMemoryKiB))
	}
	return nil
}

// GenerateSalt returns SaltLength bytes from the system CSPRNG.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, domain.ErrBackupCrypto.WithDetails("generate salt").WithCause(err)
	}
	return salt, nil
}

// DeriveKey derives a KeyLength-byte key from passphrase and salt with Argon2id.
// The caller owns the returned key and should release it with ZeroKey.
func DeriveKey(passphrase, salt []byte, p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) < MinSaltLength {
		return nil, domain.ErrBackupCrypto.WithDetails(fmt.Sprintf("kdf salt too short (%d bytes)", len(salt)))
	}
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, uint8(p.Parallelism), KeyLength), nil
}

// ZeroKey overwrites key material in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
