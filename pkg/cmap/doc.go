// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex.
//
// Usage:
//
//	m := cmap.New[string, *Client]()
//	m.Set(id, client)
//	c, ok := m.Get(id)
//
// Range visits shards one at a time, so it does not see a consistent view
// of the whole map.
package cmap
