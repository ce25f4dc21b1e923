// Package command defines the bestelldesk-backup command line.
//
// Commands:
//
//   - export: write an encrypted backup of the configured collections
//   - import: replace collections with the contents of a backup
//   - verify: decrypt and decode a backup without touching the datastore
//   - inspect: show the unencrypted header of a backup
//   - config: show or validate the effective configuration
//
// The passphrase comes from --passphrase-file, BESTELLDESK_BACKUP_PASSPHRASE
// or an interactive prompt, in that order. It is never taken from a flag
// value.
package command
