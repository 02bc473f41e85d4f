// Copyright (c) 2023 BVK Chaitanya

// Package idgen derives stable uuids from string seeds. The same seed and
// position always produce the same uuid, which lets a restarted process
// assign the same ids to the same events.
package idgen

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/google/uuid"
)

// Generator creates sequence of uuids derived from a given seed.
type Generator struct {
	seed string
	base uuid.UUID

	next  uint64
	cache []uuid.UUID
}

func New(seed string, offset uint64) *Generator {
	return &Generator{seed: seed, base: baseID(seed), next: offset}
}

func (v *Generator) Seed() string {
	return v.seed
}

// Derive returns the uuid at position n of the seed's sequence.
func Derive(seed string, n uint64) uuid.UUID {
	return derive(baseID(seed), n)
}

func baseID(seed string) uuid.UUID {
	return uuid.UUID(md5.Sum([]byte(seed)))
}

func (v *Generator) Offset() uint64 {
	return v.next
}

func (v *Generator) NextID() uuid.UUID {
	if len(v.cache) == 0 || v.next%10 == 0 {
		v.cache = v.prepare(v.next-v.next%10, 10)
	}
	id := v.cache[v.next%10]
	v.next++
	return id
}

func (v *Generator) prepare(from, n uint64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := uint64(0); i < n; i++ {
		ids = append(ids, derive(v.base, from+i))
	}
	return ids
}

func derive(base uuid.UUID, n uint64) uuid.UUID {
	var buf [16 + 8]byte
	copy(buf[:16], base[:])
	binary.BigEndian.PutUint64(buf[16:], n)
	return uuid.UUID(md5.Sum(buf[:]))
}
