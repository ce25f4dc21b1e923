// Command bestelldesk-backup exports the BestellDesk datastore to a
// passphrase-protected backup file and restores it again.
//
// Usage:
//
//	bestelldesk-backup [global options] export --out FILE
//	bestelldesk-backup [global options] import --in FILE [--yes]
//	bestelldesk-backup [global options] verify --in FILE
//	bestelldesk-backup [global options] inspect FILE
//	bestelldesk-backup [global options] config show|validate
//
// Exit status is 65 for a malformed or unsupported backup, 69 for a
// datastore failure, 74 for file i/o errors, 77 for a wrong passphrase or
// tampered backup and 1 for anything else.
package main
