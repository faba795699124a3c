// Package keymutex provides a mutex sharded by string key. It scopes
// critical sections to a key's hash shard instead of one global lock, so
// unrelated keys rarely contend while equal keys always serialize.
package keymutex

import (
	"hash/fnv"
	"sync"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 64

// KeyMutex is a fixed set of mutex shards addressed by key hash.
// Equal keys always map to the same shard.
type KeyMutex struct {
	shards []sync.Mutex
}

// New creates a KeyMutex with DefaultShards shards.
func New() *KeyMutex {
	return NewSharded(DefaultShards)
}

// NewSharded creates a KeyMutex with n shards (minimum 1).
func NewSharded(n int) *KeyMutex {
	if n < 1 {
		n = 1
	}
	return &KeyMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard for key.
func (m *KeyMutex) Lock(key string) {
	m.shards[m.index(key)].Lock()
}

// Unlock releases the shard for key.
func (m *KeyMutex) Unlock(key string) {
	m.shards[m.index(key)].Unlock()
}

func (m *KeyMutex) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
