// Package tsemitter renders a contract map as a TypeScript interface
// mapping each path and method to its endpoint function type.
package tsemitter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/emitter"
	"github.com/mark3labs/contractkit/internal/generator"
)

// Options control emission.
type Options struct {
	Generation generator.Options
	// Title names the source document in the header. Optional.
	Title string
	// Verify runs the rendered source through the esbuild TypeScript parser.
	Verify bool
	DryRun bool
}

// Result reports what was (or would be) written.
type Result struct {
	Planned []emitter.PlannedFile
	Source  []byte
}

// Emit renders m and writes it to opts.Generation.OutputPath.
func Emit(ctx context.Context, m *contract.Map, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := opts.Generation.OutputPath
	if out == "" {
		out = generator.DefaultTSOutputPath
	}
	src := Render(m, opts)
	if opts.Verify {
		if err := Verify(src); err != nil {
			return nil, err
		}
	}
	files := map[string][]byte{out: src}
	res := &Result{Planned: emitter.Plan(files), Source: src}
	if opts.DryRun {
		return res, nil
	}
	if err := emitter.WriteFiles(files); err != nil {
		return nil, err
	}
	return res, nil
}

// Render produces the contract source. Output depends only on m and opts.
func Render(m *contract.Map, opts Options) []byte {
	var b bytes.Buffer
	g := opts.Generation

	b.WriteString("/**\n")
	b.WriteString(" * Generated by contractkit. Do not edit.\n")
	if opts.Title != "" {
		fmt.Fprintf(&b, " * Source: %s\n", opts.Title)
	}
	b.WriteString(" *\n")
	b.WriteString(" * Options:\n")
	fmt.Fprintf(&b, " *   inlineDTOs: %t\n", g.InlineDTOs)
	fmt.Fprintf(&b, " *   generateUtilityTypes: %t\n", g.GenerateUtilityTypes)
	fmt.Fprintf(&b, " *   generateSchemas: %t\n", g.GenerateSchemas)
	b.WriteString(" */\n\n")

	if g.GenerateUtilityTypes {
		b.WriteString("// PathsOf, MethodsOf, ParamsOf, BodyOf, ResponseOf and PathsWithMethod\n")
		b.WriteString("// are exported by the shared path utilities module.\n\n")
	}

	b.WriteString("export interface ApiEndpoints {\n")
	for _, path := range m.Paths() {
		fmt.Fprintf(&b, "  %s: {\n", quoteKey(path))
		for _, method := range m.Methods(path) {
			e, _ := m.Lookup(path, method)
			fmt.Fprintf(&b, "    %s: (params: %s, body: %s) => %s;\n",
				method, e.Params.TS(), e.Body.TS(), e.Response.TS())
		}
		b.WriteString("  };\n")
	}
	b.WriteString("}\n")

	if g.GenerateSchemas {
		b.WriteString("\nexport const apiSchemas = {} as const;\n")
	}
	return b.Bytes()
}

// Verify parses src as TypeScript and reports the first syntax error.
func Verify(src []byte) error {
	res := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderTS,
		Sourcefile: "api.contract.ts",
	})
	if len(res.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		if e.Location != nil {
			msgs = append(msgs, fmt.Sprintf("%d:%d: %s", e.Location.Line, e.Location.Column, e.Text))
			continue
		}
		msgs = append(msgs, e.Text)
	}
	return fmt.Errorf("generated TypeScript does not parse: %s", strings.Join(msgs, "; "))
}

func quoteKey(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
