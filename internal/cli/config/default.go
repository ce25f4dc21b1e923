package config

import (
	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/storage"
	"github.com/yndnr/bestelldesk-go/internal/storage/snapshot"
	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	kdf := snapshot.DefaultKDFParams()
	return &Config{
		Storage: storage.DefaultConfig(),
		Backup: BackupSection{
			Collections: append([]string(nil), domain.DefaultCollections...),
			Cipher:      string(adaptive.CipherAESGCM),
			KDF: KDFSection{
				MCost: kdf.MemoryKiB,
				TCost: kdf.Time,
				PCost: kdf.Parallelism,
			},
			App: domain.DefaultAppTag,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// KDFParams converts the KDF section.
func (b BackupSection) KDFParams() snapshot.KDFParams {
	return snapshot.KDFParams{
		MemoryKiB:   b.KDF.MCost,
		Time:        b.KDF.TCost,
		Parallelism: b.KDF.PCost,
	}
}
