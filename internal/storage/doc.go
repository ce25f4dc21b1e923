// Package storage provides the DocumentStore backends of the backup engine.
//
// Backends:
//
//   - badger: embedded store on disk (default), see BadgerStore
//   - mongo: a MongoDB database, see package storage/mongo
//   - memory: in-process store, see package storage/memory
//
// Open selects a backend from Config. Every backend treats records as
// opaque BSON documents and keeps them in insertion order.
package storage
