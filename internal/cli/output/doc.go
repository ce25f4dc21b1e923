// Package output renders command results for bestelldesk-backup.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables, Tabler values and key/value fallback
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: progress animation on terminals
//
// Results should carry json tags; the YAML formatter reuses them so both
// machine formats use the same field names.
package output
