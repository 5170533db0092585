// Package emitter holds the file planning and writing shared by the
// contract source emitters.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// PlannedFile describes a file an emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
	Mode os.FileMode
}

// Plan lists files in deterministic path order.
func Plan(files map[string][]byte) []PlannedFile {
	paths := sortedPaths(files)
	planned := make([]PlannedFile, 0, len(paths))
	for _, p := range paths {
		planned = append(planned, PlannedFile{Path: filepath.ToSlash(p), Size: len(files[p]), Mode: fileMode})
	}
	return planned
}

const fileMode os.FileMode = 0o644

func sortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// WriteFiles writes every file, creating parent directories as needed and
// replacing existing files. Each file is written to a temporary sibling and
// renamed into place so readers never observe partial content.
func WriteFiles(files map[string][]byte) error {
	// Keys are used as given; Plan's slash form is for display only.
	for _, p := range sortedPaths(files) {
		if err := writeAtomic(p, files[p], fileMode); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(path string, content []byte, mode os.FileMode) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
