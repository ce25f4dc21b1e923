package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := cfg.Storage.Validate(); err != nil {
		return err
	}
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyBackup(cfg *BackupSection) error {
	if len(cfg.Collections) == 0 {
		return errors.New("backup.collections must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Collections))
	for _, name := range cfg.Collections {
		if name == "" {
			return errors.New("backup.collections contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("backup.collections lists %q twice", name)
		}
		seen[name] = true
	}

	if !adaptive.IsSupported(adaptive.CipherType(cfg.Cipher)) {
		return fmt.Errorf("backup.cipher %q is not supported", cfg.Cipher)
	}
	if err := cfg.KDFParams().Validate(); err != nil {
		return fmt.Errorf("backup.kdf: %w", err)
	}
	if cfg.App == "" {
		return errors.New("backup.app is required")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", cfg.Format)
	}
	return nil
}
