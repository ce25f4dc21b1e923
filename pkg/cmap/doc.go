// Package cmap provides a concurrent string-keyed map.
//
// Keys are spread over a power-of-two number of shards by maphash, each
// guarded by its own RWMutex:
//
//	m := cmap.New[[]byte]()
//	m.Set("dishes", data)
//	val, ok := m.Get("dishes")
//
// Update and Pop run their read-modify-write under the shard lock. Range
// and Keys lock one shard at a time, so they do not observe a single
// consistent view of the whole map.
package cmap
