// Package domain defines the core domain models for BestellDesk backups.
//
// Domain models are value objects without IO dependencies. This package contains:
//
//   - Document: schema-free, order-preserving record (BSON document)
//   - Snapshot: the in-memory, pre-encryption view of all backed-up collections
//   - Meta: producer metadata carried inside every snapshot
//   - Errors: coded errors and the ErrorKind taxonomy (io, format, crypto, datastore)
package domain
