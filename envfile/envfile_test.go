// Copyright (c) 2025 BVK Chaitanya

package envfile

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
# qubic endpoints
QUBIC_RPC_URL=https://rpc.qubic.org
export QUBIC_API_BASE = "https://api.qubic.org/v1"
EMPTY=
QUOTED='a b=c'
`
	vars, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []Variable{
		{"QUBIC_RPC_URL", "https://rpc.qubic.org"},
		{"QUBIC_API_BASE", "https://api.qubic.org/v1"},
		{"EMPTY", ""},
		{"QUOTED", "a b=c"},
	}
	if !slices.Equal(vars, want) {
		t.Fatalf("want %v, got %v", want, vars)
	}

	if _, err := Parse(strings.NewReader("NOVALUE\n")); err == nil {
		t.Fatalf("want error for line without assignment, got nil")
	}
	if _, err := Parse(strings.NewReader("1BAD=x\n")); err == nil {
		t.Fatalf("want error for invalid variable name, got nil")
	}
}

func TestUpdateEnv(t *testing.T) {
	dir := t.TempDir()
	data := "LWTEST_ONE=1\nLWTEST_TWO=2\n"
	if err := os.WriteFile(filepath.Join(dir, ".test.env"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LWTEST_ONE", "")
	t.Setenv("LWTEST_TWO", "existing")

	names, err := UpdateEnv(".test.env", SearchDirs(dir))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"LWTEST_ONE"}) {
		t.Fatalf("want only LWTEST_ONE to be set, got %v", names)
	}
	if v := os.Getenv("LWTEST_ONE"); v != "1" {
		t.Fatalf("want 1, got %q", v)
	}
	if v := os.Getenv("LWTEST_TWO"); v != "existing" {
		t.Fatalf("want existing value to be kept, got %q", v)
	}

	if _, err := UpdateEnv(".test.env", SearchDirs(dir), OverwriteIfExists(true)); err != nil {
		t.Fatal(err)
	}
	if v := os.Getenv("LWTEST_TWO"); v != "2" {
		t.Fatalf("want overwritten value 2, got %q", v)
	}

	if _, err := UpdateEnv("a/b.env"); err == nil {
		t.Fatalf("want error for file name with separator, got nil")
	}
	if names, err := UpdateEnv(".missing.env", SearchDirs(dir)); err != nil || len(names) != 0 {
		t.Fatalf("want no error and no names for missing file, got %v, %v", names, err)
	}
}
