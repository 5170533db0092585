// Package goemitter renders a contract map as a Go package: typed
// endpoint handles, module marker types and the embedded runtime registry.
package goemitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/emitter"
	"github.com/mark3labs/contractkit/internal/generator"
)

// ContractImportPath is the import path generated code uses for the
// contract package.
const ContractImportPath = "github.com/mark3labs/contractkit/internal/contract"

const (
	registryFile = "contract.json"
	sourceFile   = "contract_gen.go"
)

// Options controls how the Go emitter renders a package.
type Options struct {
	// Generation.OutputPath is the package directory.
	Generation generator.Options
	// PackageName defaults to the sanitized base name of the directory.
	PackageName string
	// ContractImport overrides ContractImportPath.
	ContractImport string
	// RouteBase is the literal path prefix module markers are grouped
	// below, e.g. "/api". "/" groups by first segment; empty means the
	// prefix shared by every path.
	RouteBase string
	Title     string
	DryRun    bool
}

// Result returns the planned files and the resolved package name.
type Result struct {
	PackageName string
	Planned     []emitter.PlannedFile
	Files       map[string][]byte
}

// Emit renders m as a Go package and writes it unless DryRun is set.
func Emit(ctx context.Context, m *contract.Map, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("goemitter: nil contract map")
	}
	dir := opts.Generation.OutputPath
	if strings.TrimSpace(dir) == "" {
		dir = generator.DefaultGoOutputPath
	}
	pkg := sanitizePackageName(opts.PackageName)
	if pkg == "" {
		pkg = sanitizePackageName(filepath.Base(dir))
	}
	if pkg == "" {
		pkg = "api"
	}

	registry, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", registryFile, err)
	}
	src, err := Render(m, pkg, opts)
	if err != nil {
		return nil, err
	}
	files := map[string][]byte{
		filepath.Join(dir, registryFile): append(registry, '\n'),
		filepath.Join(dir, sourceFile):   src,
	}
	res := &Result{PackageName: pkg, Planned: emitter.Plan(files), Files: files}
	if opts.DryRun {
		return res, nil
	}
	if err := emitter.WriteFiles(files); err != nil {
		return nil, err
	}
	return res, nil
}

// module is a route prefix shared by every path with the same segment
// below the route base.
type module struct {
	prefix    string
	typeName  string
	groupName string
	entries   []routedEntry
}

type routedEntry struct {
	name, verb, params, body, response string
}

// Render produces the formatted source of contract_gen.go.
func Render(m *contract.Map, pkg string, opts Options) ([]byte, error) {
	importPath := opts.ContractImport
	if importPath == "" {
		importPath = ContractImportPath
	}
	names := newNamer("Registry", "registryJSON")
	w := &typeWriter{names: names}

	var base []string
	if rb := strings.TrimSpace(opts.RouteBase); rb != "" {
		base = segments(rb)
	} else {
		base = routeBase(m.Paths())
	}
	var modules []*module
	bySegment := make(map[string]*module)
	var endpoints bytes.Buffer

	for _, e := range m.Entries() {
		name := names.unique(endpointName(e.Method, e.Path))
		re := routedEntry{
			name:     name,
			verb:     verbType(e.Method),
			params:   w.goType(e.Params, name+"Params"),
			body:     w.goType(e.Body, name+"Body"),
			response: w.goType(e.Response, name+"Response"),
		}
		fmt.Fprintf(&endpoints, "// %s is %s %s.", name, e.Method, e.Path)
		if s := strings.Join(strings.Fields(e.Summary), " "); s != "" {
			fmt.Fprintf(&endpoints, "\n// %s", s)
		}
		fmt.Fprintf(&endpoints, "\nvar %s = contract.Endpoint[%s, %s, %s, %s]{Path: %s}\n\n",
			name, re.verb, re.params, re.body, re.response, strconv.Quote(e.Path))

		seg := moduleSegment(e.Path, base)
		if seg == "" {
			continue
		}
		mod, ok := bySegment[seg]
		if !ok {
			ident := segmentName(seg)
			mod = &module{
				prefix:    "/" + strings.Join(append(append([]string{}, base...), seg), "/"),
				typeName:  names.unique(ident + "Module"),
				groupName: names.unique(ident + "Routes"),
			}
			bySegment[seg] = mod
			modules = append(modules, mod)
		}
		mod.entries = append(mod.entries, re)
	}

	var b bytes.Buffer
	b.WriteString("// Code generated by contractkit. DO NOT EDIT.\n")
	if opts.Title != "" {
		fmt.Fprintf(&b, "// Source: %s\n", opts.Title)
	}
	g := opts.Generation
	fmt.Fprintf(&b, "// Options: inlineDTOs=%t generateUtilityTypes=%t generateSchemas=%t\n\n",
		g.InlineDTOs, g.GenerateUtilityTypes, g.GenerateSchemas)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "import (\n\t_ \"embed\"\n\t\"encoding/json\"\n\n\t%s\n)\n\n", strconv.Quote(importPath))
	fmt.Fprintf(&b, "//go:embed %s\nvar registryJSON []byte\n\n", registryFile)
	b.WriteString("// Registry is the runtime contract decoded from " + registryFile + ".\n")
	b.WriteString("var Registry = contract.MustParse(registryJSON)\n\n")

	for _, mod := range modules {
		fmt.Fprintf(&b, "// %s scopes clients to routes under %s.\n", mod.typeName, mod.prefix)
		fmt.Fprintf(&b, "type %s struct{}\n\n", mod.typeName)
		fmt.Fprintf(&b, "func (%s) Prefix() string { return %s }\n\n", mod.typeName, strconv.Quote(mod.prefix))
	}
	for _, d := range w.decls {
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.Write(endpoints.Bytes())
	for _, mod := range modules {
		fmt.Fprintf(&b, "// %s holds the endpoints under %s bound to %s.\n", mod.groupName, mod.prefix, mod.typeName)
		fmt.Fprintf(&b, "var %s = struct {\n", mod.groupName)
		for _, re := range mod.entries {
			fmt.Fprintf(&b, "\t%s contract.Routed[%s, %s, %s, %s, %s]\n",
				re.name, mod.typeName, re.verb, re.params, re.body, re.response)
		}
		b.WriteString("}{\n")
		for _, re := range mod.entries {
			fmt.Fprintf(&b, "\t%s: contract.Route[%s](%s),\n", re.name, mod.typeName, re.name)
		}
		b.WriteString("}\n\n")
	}

	out, err := imports.Process(sourceFile, b.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", sourceFile, err)
	}
	return out, nil
}
