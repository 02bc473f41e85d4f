// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bvk/ledgerwatch/pushover"
	"github.com/bvk/ledgerwatch/server"
)

func TestPushOverSetup(t *testing.T) {
	dir := t.TempDir()

	cmd := &PushOver{
		dataDir:     dir,
		skipTesting: true,
		appID:       "app-key",
		userID:      "user-key",
	}
	if err := cmd.run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	secretsPath := filepath.Join(dir, "secrets.json")
	fi, err := os.Stat(secretsPath)
	if err != nil {
		t.Fatal(err)
	}
	if mode := fi.Mode().Perm(); mode != 0600 {
		t.Fatalf("want secrets file mode 0600, got %o", mode)
	}

	secrets, err := server.SecretsFromFile(secretsPath)
	if err != nil {
		t.Fatal(err)
	}
	want := pushover.Keys{ApplicationKey: "app-key", UserKey: "user-key"}
	if secrets.Pushover == nil || *secrets.Pushover != want {
		t.Fatalf("want %v, got %v", want, secrets.Pushover)
	}
	if secrets.Telegram != nil {
		t.Fatalf("want no telegram secrets, got %v", secrets.Telegram)
	}
}

func TestTelegramSetupInvalid(t *testing.T) {
	cmd := &Telegram{
		dataDir:     t.TempDir(),
		skipTesting: true,
		botToken:    "token",
	}
	if err := cmd.run(context.Background(), nil); err == nil {
		t.Fatalf("want error for missing owner id, got nil")
	}
}
