package config

import (
	"github.com/yndnr/bestelldesk-go/internal/storage"
)

// Config is the root configuration for bestelldesk-backup.
type Config struct {
	Storage storage.Config `koanf:"storage" json:"storage"`
	Backup  BackupSection  `koanf:"backup" json:"backup"`
	Log     LogSection     `koanf:"log" json:"log"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics"`
}

// BackupSection configures what is backed up and how it is sealed.
type BackupSection struct {
	// Collections are backed up and restored in this order.
	Collections []string `koanf:"collections" json:"collections"`

	// Cipher is the AEAD used for new backups. Imports use the cipher
	// named in the file.
	Cipher string `koanf:"cipher" json:"cipher"`

	KDF KDFSection `koanf:"kdf" json:"kdf"`

	// App is the application tag stored in every snapshot.
	App string `koanf:"app" json:"app"`
}

// KDFSection holds the Argon2id costs used for new backups.
type KDFSection struct {
	MCost uint32 `koanf:"m_cost" json:"m_cost"` // KiB
	TCost uint32 `koanf:"t_cost" json:"t_cost"`
	PCost uint32 `koanf:"p_cost" json:"p_cost"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"` // json, text
}

// MetricsSection configures the metrics textfile.
type MetricsSection struct {
	// Textfile is written after each command for node_exporter's textfile
	// collector. Empty disables it.
	Textfile string `koanf:"textfile" json:"textfile"`
}
