package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "contractkit.yaml")

	if err := newTestRoot("init", "--out", path).Execute(); err != nil {
		t.Fatalf("init execute: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	s := string(data)
	for _, want := range []string{"contractkit configuration", "# lang: ts", "CONTRACTKIT_INPUT"} {
		if !strings.Contains(s, want) {
			t.Fatalf("config is missing %q:\n%s", want, s)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the config file, found %d entries", len(entries))
	}
}

func TestInit_SampleConfigKeysAreAccepted(t *testing.T) {
	t.Parallel()
	// Every commented key in the sample must be understood by --config.
	for _, line := range strings.Split(sampleConfigYAML, "\n") {
		if !strings.HasPrefix(line, "# ") || !strings.Contains(line, ": ") {
			continue
		}
		body := strings.TrimPrefix(line, "# ")
		key := strings.SplitN(body, ":", 2)[0]
		if strings.ContainsAny(key, " (") {
			continue
		}
		cfg := defaultGenerateConfig()
		if err := applyConfigField(&cfg, key, nil); errors.Is(err, errUnknownField) {
			t.Errorf("sample key %q is not accepted", key)
		}
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}

	err := newTestRoot("init", "--out", path).Execute()
	if err == nil {
		t.Fatalf("expected error for existing file without --force")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}

	if err := newTestRoot("init", "--out", path, "--force").Execute(); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) == "x" {
		t.Fatalf("file was not overwritten")
	}
}
