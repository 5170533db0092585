package spec

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/contractkit/internal/contract"
)

// BuildOption configures which routes ExtractRoutes keeps.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[contract.Method]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only routes that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes routes that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only routes using one of the provided methods.
func WithMethods(methods []contract.Method) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[contract.Method]struct{}, len(methods))
			}
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only routes whose path matches at least one of the
// provided regular expressions. Invalid patterns never match.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// ExtractRoutes walks the document's paths and returns one Route per
// (path, method), ordered by path and then alphabetically by method. Keys
// of a path item that are not HTTP verbs ("parameters", "summary", vendor
// extensions) never become routes; path-level parameters are merged into
// each operation with operation-level parameters taking precedence.
func ExtractRoutes(doc *Document, opts ...BuildOption) ([]Route, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	paths, _ := doc.Raw["paths"].(map[string]any)
	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var routes []Route
	for _, p := range pathKeys {
		if !allowByPath(p, cfg) {
			continue
		}
		item, err := derefMap(doc, paths[p])
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		base, err := collectParams(doc, item["parameters"])
		if err != nil {
			return nil, err
		}

		var verbs []contract.Method
		opNodes := make(map[contract.Method]map[string]any)
		for key, node := range item {
			method, err := contract.ParseMethod(key)
			if err != nil {
				continue
			}
			op, _ := node.(map[string]any)
			if op == nil {
				continue
			}
			verbs = append(verbs, method)
			opNodes[method] = op
		}
		sort.Slice(verbs, func(i, j int) bool { return verbs[i] < verbs[j] })

		for _, method := range verbs {
			if len(cfg.methods) > 0 {
				if _, ok := cfg.methods[method]; !ok {
					continue
				}
			}
			op := opNodes[method]
			tags := stringList(op["tags"])
			if !allowByTags(tags, cfg) {
				continue
			}
			own, err := collectParams(doc, op["parameters"])
			if err != nil {
				return nil, err
			}
			responses, _ := op["responses"].(map[string]any)
			routes = append(routes, Route{
				Path:        p,
				Method:      method,
				OperationID: strings.TrimSpace(asString(op["operationId"])),
				Summary:     strings.TrimSpace(asString(op["summary"])),
				Tags:        tags,
				Pointer:     "#/paths/" + EscapeToken(p) + "/" + strings.ToLower(string(method)),
				Parameters:  mergeParams(base, own),
				RequestBody: op["requestBody"],
				Responses:   responses,
			})
		}
	}
	return routes, nil
}

// derefMap follows a top-level $ref on a node and returns it as a mapping.
func derefMap(doc *Document, node any) (map[string]any, error) {
	m, _ := node.(map[string]any)
	seen := map[string]bool{}
	for m != nil {
		ref, ok := m["$ref"].(string)
		if !ok {
			return m, nil
		}
		if seen[ref] {
			return nil, &RefError{Ref: ref, Err: ErrUnresolvedRef}
		}
		seen[ref] = true
		target, err := doc.Deref(ref)
		if err != nil {
			return nil, err
		}
		m, _ = target.(map[string]any)
	}
	return nil, nil
}

func collectParams(doc *Document, node any) ([]Parameter, error) {
	list, _ := node.([]any)
	out := make([]Parameter, 0, len(list))
	for _, raw := range list {
		pm, err := derefMap(doc, raw)
		if err != nil {
			return nil, err
		}
		if pm == nil {
			continue
		}
		p := Parameter{
			Name:   strings.TrimSpace(asString(pm["name"])),
			In:     strings.ToLower(strings.TrimSpace(asString(pm["in"]))),
			Schema: pm["schema"],
		}
		p.Required, _ = pm["required"].(bool)
		if p.In == InPath {
			p.Required = true
		}
		if p.Schema == nil {
			if t := asString(pm["type"]); t != "" {
				p.Schema = map[string]any{"type": t}
			}
		}
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// mergeParams overlays operation parameters on path-level ones, keyed by
// location and name, and returns them sorted by location then name.
func mergeParams(base, own []Parameter) []Parameter {
	merged := make(map[string]Parameter, len(base)+len(own))
	for _, p := range base {
		merged[paramKey(p.In, p.Name)] = p
	}
	for _, p := range own {
		merged[paramKey(p.In, p.Name)] = p
	}
	out := make([]Parameter, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].In == out[j].In {
			return out[i].Name < out[j].Name
		}
		return out[i].In < out[j].In
	})
	return out
}

func paramKey(in, name string) string { return in + ":" + name }

func allowByPath(p string, cfg *buildConfig) bool {
	if len(cfg.pathRes) == 0 {
		return true
	}
	for _, re := range cfg.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func stringList(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, item := range list {
		if s := strings.TrimSpace(asString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
