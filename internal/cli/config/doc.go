// Package config defines the configuration of bestelldesk-backup.
//
//   - spec.go: Config struct and sections
//   - default.go: default values
//   - loader.go: loading through confloader
//   - verify.go: validation
//   - sanitize.go: masked copy for logging
package config
