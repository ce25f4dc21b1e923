// Package memory provides an in-memory DocumentStore.
//
// Collections are held as BSON-encoded records in a sharded map, so reads
// return fresh copies and values take the same shapes a real datastore
// would give back. It backs tests and dry runs.
package memory
