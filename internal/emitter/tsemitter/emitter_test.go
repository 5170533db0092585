package tsemitter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/generator"
	"github.com/mark3labs/contractkit/internal/shape"
)

func sampleMap(t *testing.T) *contract.Map {
	t.Helper()
	return contract.MustNew(
		contract.Entry{
			Path:   "/users/{id}",
			Method: contract.GET,
			Params: shape.Object(shape.Field{Name: "id", Type: shape.String()}),
			Response: shape.Object(
				shape.Field{Name: "id", Type: shape.String()},
				shape.Field{Name: "nickname", Type: shape.Nullable(shape.String()), Optional: true},
			),
		},
		contract.Entry{
			Path:     "/users",
			Method:   contract.POST,
			Body:     shape.Object(shape.Field{Name: "name", Type: shape.String()}),
			Response: shape.Void(),
		},
		contract.Entry{
			Path:     "/users",
			Method:   contract.GET,
			Response: shape.ArrayOf(shape.Union(shape.Literal("a"), shape.Number())),
		},
	)
}

func TestRender_Layout(t *testing.T) {
	t.Parallel()
	src := string(Render(sampleMap(t), Options{Generation: generator.DefaultOptions(), Title: "Users"}))

	for _, want := range []string{
		" * Source: Users\n",
		" *   inlineDTOs: true\n",
		" *   generateUtilityTypes: true\n",
		" *   generateSchemas: false\n",
		"// PathsOf, MethodsOf",
		"export interface ApiEndpoints {\n",
		"  '/users': {\n    GET: (params: undefined, body: undefined) => (\"a\" | number)[];\n    POST: (params: undefined, body: { name: string }) => void;\n  };\n",
		"  '/users/{id}': {\n    GET: (params: { id: string }, body: undefined) => { id: string; nickname?: string | null };\n  };\n",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("missing %q in:\n%s", want, src)
		}
	}
	if strings.Contains(src, "apiSchemas") {
		t.Fatalf("schemas emitted without option")
	}
	if strings.Index(src, "'/users'") > strings.Index(src, "'/users/{id}'") {
		t.Fatalf("paths not sorted")
	}
}

func TestRender_OptionalSections(t *testing.T) {
	t.Parallel()
	opts := Options{Generation: generator.Options{InlineDTOs: true, GenerateSchemas: true}}
	src := string(Render(sampleMap(t), opts))
	if !strings.Contains(src, "export const apiSchemas = {} as const;") {
		t.Fatalf("schemas placeholder missing")
	}
	if strings.Contains(src, "PathsOf") {
		t.Fatalf("utility pointer emitted without option")
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()
	opts := Options{Generation: generator.DefaultOptions()}
	a := Render(sampleMap(t), opts)
	b := Render(sampleMap(t), opts)
	if !bytes.Equal(a, b) {
		t.Fatalf("output differs between runs")
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()
	if err := Verify(Render(sampleMap(t), Options{Generation: generator.DefaultOptions()})); err != nil {
		t.Fatalf("verify generated: %v", err)
	}
	if err := Verify([]byte("export interface X { a: ; }")); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestEmit_DryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "contracts", "api.contract.ts")
	g := generator.DefaultOptions()
	g.OutputPath = out

	res, err := Emit(context.Background(), sampleMap(t), Options{Generation: g, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Planned) != 1 || res.Planned[0].Path != filepath.ToSlash(out) {
		t.Fatalf("unexpected plan: %+v", res.Planned)
	}
	if res.Planned[0].Size != len(res.Source) {
		t.Fatalf("planned size %d, source %d", res.Planned[0].Size, len(res.Source))
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote %s", out)
	}
}

func TestEmit_WritesAndOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "deeper", "api.contract.ts")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	g := generator.DefaultOptions()
	g.OutputPath = out

	res, err := Emit(context.Background(), sampleMap(t), Options{Generation: g, Verify: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, res.Source) {
		t.Fatalf("written content differs from rendered source")
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestEmit_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Emit(ctx, sampleMap(t), Options{DryRun: true}); err == nil {
		t.Fatalf("expected context error")
	}
}
