// Copyright (c) 2025 BVK Chaitanya

package kvutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bvk/ledgerwatch/gobs"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()

	src := kvmemdb.New()
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("/ledgerwatch/test/%02d", i)
		if err := SetDB(ctx, src, key, &gobs.KeyValue{Key: key, Value: []byte{byte(i)}}); err != nil {
			t.Fatal(err)
		}
	}

	file := filepath.Join(t.TempDir(), "backup.gob")
	if err := BackupDB(ctx, src, file); err != nil {
		t.Fatal(err)
	}

	dst := kvmemdb.New()
	if err := SetDB(ctx, dst, "/stale", &gobs.KeyValue{Key: "stale"}); err != nil {
		t.Fatal(err)
	}
	if err := RestoreDB(ctx, dst, file, 7); err != nil {
		t.Fatal(err)
	}

	if _, err := GetDB[gobs.KeyValue](ctx, dst, "/stale"); err == nil {
		t.Fatalf("want stale key removed, got nil error")
	}
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("/ledgerwatch/test/%02d", i)
		v, err := GetDB[gobs.KeyValue](ctx, dst, key)
		if err != nil {
			t.Fatal(err)
		}
		if v.Key != key || len(v.Value) != 1 || v.Value[0] != byte(i) {
			t.Fatalf("want %s/%d, got %s/%v", key, i, v.Key, v.Value)
		}
	}
}

func TestClearInvalidBatch(t *testing.T) {
	if err := Clear(context.Background(), kvmemdb.New(), 0); err == nil {
		t.Fatalf("want error for zero batch size, got nil")
	}
}

func TestGetMissing(t *testing.T) {
	_, err := GetDB[gobs.KeyValue](context.Background(), kvmemdb.New(), "/missing")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}
