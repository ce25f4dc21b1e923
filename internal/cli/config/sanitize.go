package config

import "github.com/yndnr/bestelldesk-go/internal/telemetry/logger"

// Sanitize returns a copy of the config with credentials masked.
//
// This is used for logging and for the config subcommand output.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Backup.Collections = append([]string(nil), cfg.Backup.Collections...)

	if sanitized.Storage.Mongo.URI != "" {
		sanitized.Storage.Mongo.URI = logger.RedactString(sanitized.Storage.Mongo.URI)
	}

	return &sanitized
}
