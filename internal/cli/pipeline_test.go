package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/contractkit/internal/spec"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /hello/{name}:\n" +
	"    get:\n" +
	"      summary: Hello\n" +
	"      parameters:\n" +
	"        - name: name\n" +
	"          in: path\n" +
	"          required: true\n" +
	"          schema:\n" +
	"            type: string\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          content:\n" +
	"            application/json:\n" +
	"              schema:\n" +
	"                type: object\n" +
	"                properties:\n" +
	"                  greeting:\n" +
	"                    type: string\n"

// captureStdout redirects os.Stdout, so callers must not run in parallel.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeSpec(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestGeneratePipeline_DryRun_Go(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outDir := filepath.Join(dir, "out-go")

	root := newTestRoot("--env-file", "", "generate", "--input", specPath, "--lang", "go", "--out", outDir, "--dry-run")
	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") || !strings.Contains(out, "(2 files)") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	if !strings.Contains(out, "contract_gen.go") || !strings.Contains(out, "contract.json") {
		t.Fatalf("plan is missing files: %s", out)
	}
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_DryRun_TS(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outFile := filepath.Join(dir, "src", "api.contract.ts")

	root := newTestRoot("--env-file", "", "generate", "--input", specPath, "--out", outFile, "--dry-run")
	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") || !strings.Contains(out, "(1 files)") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	if _, err := os.Stat(outFile); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_WritesTS(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outFile := filepath.Join(dir, "src", "api.contract.ts")

	root := newTestRoot("--env-file", "", "generate", "--input", specPath, "--out", outFile, "--verify")
	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("expected write report, got: %s", out)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	src := string(data)
	for _, want := range []string{
		" * Source: Test API",
		"'/hello/{name}': {",
		"GET: (params: { name: string }, body: undefined) => { greeting?: string };",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("output is missing %q:\n%s", want, src)
		}
	}
}

func TestGeneratePipeline_ExternalRefIsUsageError(t *testing.T) {
	dir := t.TempDir()
	external := strings.Replace(minimalSpecYAML,
		"                type: object\n"+
			"                properties:\n"+
			"                  greeting:\n"+
			"                    type: string\n",
		"                $ref: './common.yaml#/Greeting'\n", 1)
	specPath := writeSpec(t, dir, external)
	outFile := filepath.Join(dir, "api.contract.ts")

	err := newTestRoot("--env-file", "", "generate", "--input", specPath, "--out", outFile).Execute()
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !errors.Is(err, spec.ErrExternalRef) {
		t.Fatalf("expected external ref in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "same document") {
		t.Fatalf("unexpected message: %v", err)
	}
	if _, statErr := os.Stat(outFile); statErr == nil {
		t.Fatalf("no output may be written when generation fails")
	}
}
