// Copyright (c) 2023 BVK Chaitanya

// Package syncmap provides a type-safe wrapper over sync.Map.
package syncmap

import (
	"iter"
	"sync"
)

type Map[K comparable, V any] struct {
	v sync.Map
}

func (m *Map[K, V]) Delete(key K) {
	m.v.Delete(key)
}

func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.v.Load(key)
	if !ok {
		return value, ok
	}
	return v.(V), ok
}

func (m *Map[K, V]) Store(key K, value V) {
	m.v.Store(key, value)
}

func (m *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	v, loaded := m.v.LoadAndDelete(key)
	if !loaded {
		return value, loaded
	}
	return v.(V), loaded
}

func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	a, loaded := m.v.LoadOrStore(key, value)
	return a.(V), loaded
}

// All returns an iterator over the key-value pairs. Same as sync.Map.Range,
// no consistent snapshot is implied.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.v.Range(func(key, value any) bool {
			return yield(key.(K), value.(V))
		})
	}
}

// Keys returns an iterator over the keys.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.v.Range(func(key, _ any) bool {
			return yield(key.(K))
		})
	}
}

// Len returns the number of entries by counting them.
func (m *Map[K, V]) Len() int {
	n := 0
	for range m.Keys() {
		n++
	}
	return n
}
