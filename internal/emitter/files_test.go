package emitter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlan_SortedSlashPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := map[string][]byte{
		filepath.Join(dir, "pkg", "contract_gen.go"): []byte("package pkg\n"),
		filepath.Join(dir, "pkg", "contract.json"):   []byte("{}"),
	}
	got := Plan(files)
	want := []PlannedFile{
		{Path: filepath.ToSlash(filepath.Join(dir, "pkg", "contract.json")), Size: 2, Mode: 0o644},
		{Path: filepath.ToSlash(filepath.Join(dir, "pkg", "contract_gen.go")), Size: 12, Mode: 0o644},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("plan (-want +got):\n%s", diff)
	}
}

func TestWriteFiles_WritesContentForNativeKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := map[string][]byte{
		filepath.Join(dir, "a", "b", "contract_gen.go"): []byte("package b\n"),
		filepath.Join(dir, "a", "b", "contract.json"):   []byte(`{"paths":{}}`),
		filepath.Join(dir, "api.contract.ts"):           []byte("export {};\n"),
	}
	if err := WriteFiles(files); err != nil {
		t.Fatalf("write: %v", err)
	}
	for path, want := range files {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if diff := cmp.Diff(string(want), string(got)); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", path, diff)
		}
		st, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if st.Mode().Perm()&0o600 != 0o600 {
			t.Fatalf("%s mode %v", path, st.Mode())
		}
	}

	// Rewriting replaces content in place and leaves no temp files behind.
	files[filepath.Join(dir, "api.contract.ts")] = []byte("export type A = 1;\n")
	if err := WriteFiles(files); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"a", "api.contract.ts"}, names); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
}
