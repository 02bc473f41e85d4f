// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/ledgerwatch/server"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"golang.org/x/term"
)

// loadSecrets returns the secrets file path in the data directory and its
// current contents.
func loadSecrets(dir string) (string, *server.Secrets, error) {
	dataDir, err := cmdutil.DataDir(dir)
	if err != nil {
		return "", nil, err
	}
	secretsPath := filepath.Join(dataDir, "secrets.json")
	secrets, err := server.SecretsFromFile(secretsPath)
	if err != nil {
		return "", nil, err
	}
	return secretsPath, secrets, nil
}

func saveSecrets(secretsPath string, secrets *server.Secrets) error {
	if err := secrets.Check(); err != nil {
		return err
	}
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}

// readSecret prompts on the terminal and reads a value without echo.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("standard input is not a terminal: %w", os.ErrInvalid)
	}
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("could not read from terminal: %w", err)
	}
	return string(data), nil
}

// waitForKey blocks till a key is pressed on the terminal.
func waitForKey(prompt string) error {
	fmt.Fprintln(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	b := make([]byte, 1)
	if _, err := os.Stdin.Read(b); err != nil {
		return err
	}
	return nil
}
