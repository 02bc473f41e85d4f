// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/bvk/ledgerwatch/gobs"
	"github.com/bvk/ledgerwatch/kvutil"
	"github.com/bvkgo/kv"
)

// DefaultStateKey is the database key that holds the registry snapshot.
const DefaultStateKey = "/ledgerwatch/registry"

// Store saves and restores registry snapshots. Load returns an empty state
// when nothing was saved before.
type Store interface {
	Load(ctx context.Context) (*gobs.RegistryState, error)
	Save(ctx context.Context, state *gobs.RegistryState) error
}

// KVStore keeps the registry snapshot as a gob encoded value in a key-value
// database.
type KVStore struct {
	db  kv.Database
	key string
}

func NewKVStore(db kv.Database, key string) *KVStore {
	if len(key) == 0 {
		key = DefaultStateKey
	}
	return &KVStore{db: db, key: key}
}

func (s *KVStore) Load(ctx context.Context) (*gobs.RegistryState, error) {
	state, err := kvutil.GetDB[gobs.RegistryState](ctx, s.db, s.key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(gobs.RegistryState), nil
		}
		return nil, fmt.Errorf("%w: could not load registry state: %w", ErrPersistenceFailed, err)
	}
	return state, nil
}

func (s *KVStore) Save(ctx context.Context, state *gobs.RegistryState) error {
	if err := kvutil.SetDB(ctx, s.db, s.key, state); err != nil {
		return fmt.Errorf("%w: could not save registry state: %w", ErrPersistenceFailed, err)
	}
	return nil
}

// FileStore keeps the registry snapshot as a json file holding an array of
// entity records. Files are replaced atomically, so a crash leaves either the
// old or the new snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*gobs.RegistryState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(gobs.RegistryState), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return new(gobs.RegistryState), nil
	}

	state := new(gobs.RegistryState)
	if data[0] == '[' {
		err = json.Unmarshal(data, &state.Entities)
	} else {
		err = json.Unmarshal(data, state)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not decode state file %q: %w", ErrPersistenceFailed, s.path, err)
	}
	state.Entities = slices.DeleteFunc(state.Entities, func(v *gobs.EntityConfig) bool { return v == nil })
	for _, v := range state.Entities {
		if !isCallbackURL(v.CallbackURL) {
			slog.Warn("ignoring invalid callback url in the state file", "entity", v.ID, "callback", v.CallbackURL)
			v.CallbackURL = ""
		}
	}
	return state, nil
}

// isCallbackURL reports whether s is empty or an absolute http(s) url.
func isCallbackURL(s string) bool {
	if len(s) == 0 {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") && len(u.Host) != 0
}

func (s *FileStore) Save(ctx context.Context, state *gobs.RegistryState) (status error) {
	entities := state.Entities
	if entities == nil {
		entities = []*gobs.EntityConfig{}
	}
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: could not encode state: %w", ErrPersistenceFailed, err)
	}

	abspath, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("%w: could not determine absolute path: %w", ErrPersistenceFailed, err)
	}
	fp, err := os.CreateTemp(filepath.Dir(abspath), ".state*")
	if err != nil {
		return fmt.Errorf("%w: could not create temp file: %w", ErrPersistenceFailed, err)
	}
	defer func() {
		if status != nil {
			os.Remove(fp.Name())
		}
		fp.Close()
	}()

	if _, err := fp.Write(data); err != nil {
		return fmt.Errorf("%w: could not write temp file: %w", ErrPersistenceFailed, err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("%w: could not sync temp file: %w", ErrPersistenceFailed, err)
	}
	if err := os.Rename(fp.Name(), abspath); err != nil {
		return fmt.Errorf("%w: could not rename temp file to %q: %w", ErrPersistenceFailed, abspath, err)
	}
	return nil
}
