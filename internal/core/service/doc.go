// Package service implements the BestellDesk backup engine.
//
// The engine composes four steps on top of an injected DocumentStore:
//
//   - Collect: read the configured collections into a domain.Snapshot
//   - seal: encode, derive an Argon2id key and encrypt (package snapshot)
//   - open: unpack, re-derive with the stored parameters and decrypt
//   - Restore: wipe and refill every collection present in the snapshot
//
// BackupService exposes Export, Import, Verify and Inspect. Errors are
// domain.DomainError values; domain.KindOf classifies them as io, format,
// crypto or datastore.
//
// Restore is not transactional. A failure part way leaves earlier
// collections replaced and later ones untouched.
package service
