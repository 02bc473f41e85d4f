// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func TestIDGen(t *testing.T) {
	uid := "unique message id"

	g1 := New(uid, 0)
	g1ids := make(map[int]uuid.UUID)
	for i := 0; i < 20; i++ {
		g1ids[i] = g1.NextID()
	}

	g2 := New(uid, 1)
	g2ids := make(map[int]uuid.UUID)
	for i := 0; i < 20; i++ {
		g2ids[1+i] = g2.NextID()
	}

	for k, v := range g2ids {
		if x, ok := g1ids[k]; ok && x != v {
			t.Fatalf("want %v, got %v", x, v)
		}
	}

	seen := make(map[uuid.UUID]bool)
	for _, v := range g1ids {
		if seen[v] {
			t.Fatalf("want unique ids, got duplicate %v", v)
		}
		seen[v] = true
	}
}

func TestIDGenOffset(t *testing.T) {
	uid := "unique id"

	g1 := New(uid, 0)
	offset := rand.Intn(20)
	for i := 0; i < offset; i++ {
		g1.NextID()
	}

	g2 := New(uid, g1.Offset())
	if a, b := g1.NextID(), g2.NextID(); a != b {
		t.Fatalf("want %v, got %v", a, b)
	}
}

func TestDerive(t *testing.T) {
	g := New(t.Name(), 0)
	for i := uint64(0); i < 25; i++ {
		if a, b := g.NextID(), Derive(t.Name(), i); a != b {
			t.Fatalf("want %v at position %d, got %v", a, i, b)
		}
	}
	if a, b := Derive("ACCOUNT/transfer/100", 0), Derive("ACCOUNT/transfer/101", 0); a == b {
		t.Fatalf("want different ids for different seeds, got %v for both", a)
	}
}
