// Package bimap implements a bidirectional map used for translation tables
// between vendor codes and host values.
package bimap

import (
	"errors"
	"sync"
)

// ErrImmutable is the panic value raised when mutating an immutable BiMap
var ErrImmutable = errors.New("cannot modify immutable bimap")

// BiMap is a map with a lookup in both directions. Keys and values must each be unique.
type BiMap[K comparable, V comparable] struct {
	forward   map[K]V
	inverse   map[V]K
	immutable bool
	lock      sync.RWMutex
}

// NewBiMap returns an empty, mutable BiMap
func NewBiMap[K comparable, V comparable]() *BiMap[K, V] {
	return &BiMap[K, V]{
		forward: make(map[K]V),
		inverse: make(map[V]K),
	}
}

// New returns an immutable BiMap populated from the given forward map
func New[K comparable, V comparable](forward map[K]V) *BiMap[K, V] {
	b := NewBiMap[K, V]()
	for k, v := range forward {
		b.Insert(k, v)
	}
	b.MakeImmutable()
	return b
}

// Insert puts a key/value pair, replacing any pair sharing either side
func (b *BiMap[K, V]) Insert(k K, v V) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mustBeMutable()

	if old, ok := b.forward[k]; ok {
		delete(b.inverse, old)
	}
	if old, ok := b.inverse[v]; ok {
		delete(b.forward, old)
	}
	b.forward[k] = v
	b.inverse[v] = k
}

// Exists reports whether the key is present
func (b *BiMap[K, V]) Exists(k K) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	_, ok := b.forward[k]
	return ok
}

// ExistsInverse reports whether the value is present
func (b *BiMap[K, V]) ExistsInverse(v V) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	_, ok := b.inverse[v]
	return ok
}

// Get returns the value for a key
func (b *BiMap[K, V]) Get(k K) (V, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	v, ok := b.forward[k]
	return v, ok
}

// GetInverse returns the key for a value
func (b *BiMap[K, V]) GetInverse(v V) (K, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	k, ok := b.inverse[v]
	return k, ok
}

// Delete removes a pair by key
func (b *BiMap[K, V]) Delete(k K) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mustBeMutable()

	if v, ok := b.forward[k]; ok {
		delete(b.forward, k)
		delete(b.inverse, v)
	}
}

// DeleteInverse removes a pair by value
func (b *BiMap[K, V]) DeleteInverse(v V) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mustBeMutable()

	if k, ok := b.inverse[v]; ok {
		delete(b.inverse, v)
		delete(b.forward, k)
	}
}

// Size returns the number of pairs
func (b *BiMap[K, V]) Size() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.forward)
}

// MakeImmutable freezes the map. Any later mutation panics.
func (b *BiMap[K, V]) MakeImmutable() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.immutable = true
}

// GetForwardMap returns a copy of the key to value map
func (b *BiMap[K, V]) GetForwardMap() map[K]V {
	b.lock.RLock()
	defer b.lock.RUnlock()
	m := make(map[K]V, len(b.forward))
	for k, v := range b.forward {
		m[k] = v
	}
	return m
}

// GetInverseMap returns a copy of the value to key map
func (b *BiMap[K, V]) GetInverseMap() map[V]K {
	b.lock.RLock()
	defer b.lock.RUnlock()
	m := make(map[V]K, len(b.inverse))
	for v, k := range b.inverse {
		m[v] = k
	}
	return m
}

func (b *BiMap[K, V]) mustBeMutable() {
	if b.immutable {
		panic(ErrImmutable)
	}
}
