// Package logger provides structured logging for BestellDesk tooling.
//
// It wraps log/slog:
//
//   - logger.go: handler configuration, levels, package-level helpers
//   - context.go: context propagation of the logger and operation IDs
//   - redact.go: masking of secrets and connection-string credentials
//
// Passphrases and derived keys must never be handed to a logger; redaction
// is a second line for values such as datastore URIs that embed credentials.
package logger
