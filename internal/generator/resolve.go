package generator

import (
	"sort"

	"github.com/mark3labs/contractkit/internal/shape"
	"github.com/mark3labs/contractkit/internal/spec"
)

// resolver turns raw schema nodes into shapes. visited holds the reference
// pointers on the current resolution path; meeting one again means the
// schema is recursive and the bare reference name is emitted instead.
type resolver struct {
	doc     *spec.Document
	visited map[string]bool
}

func newResolver(doc *spec.Document) *resolver {
	return &resolver{doc: doc, visited: make(map[string]bool)}
}

func (r *resolver) schema(node any) (*shape.Type, error) {
	switch n := node.(type) {
	case nil:
		return shape.Unknown(), nil
	case bool:
		if n {
			return shape.Any(), nil
		}
		return shape.Never(), nil
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			return r.ref(ref)
		}
		t, err := r.inline(n)
		if err != nil {
			return nil, err
		}
		if nullable, _ := n["nullable"].(bool); nullable {
			t = shape.Nullable(t)
		}
		return t, nil
	}
	return shape.Unknown(), nil
}

func (r *resolver) ref(ref string) (*shape.Type, error) {
	if spec.IsExternalRef(ref) {
		return nil, &spec.RefError{Ref: ref, Err: spec.ErrExternalRef}
	}
	if r.visited[ref] {
		return shape.Ref(spec.RefName(ref)), nil
	}
	target, err := r.doc.Deref(ref)
	if err != nil {
		return nil, err
	}
	r.visited[ref] = true
	defer delete(r.visited, ref)
	return r.schema(target)
}

func (r *resolver) inline(n map[string]any) (*shape.Type, error) {
	if branches, ok := n["allOf"].([]any); ok {
		if isNumber(n["example"]) {
			return shape.Number(), nil
		}
		return r.allOf(n, branches)
	}

	oneOf, hasOne := n["oneOf"].([]any)
	anyOf, hasAny := n["anyOf"].([]any)
	if hasOne || hasAny {
		var variants []*shape.Type
		for _, b := range append(append([]any{}, oneOf...), anyOf...) {
			t, err := r.schema(b)
			if err != nil {
				return nil, err
			}
			variants = append(variants, t)
		}
		return shape.Union(variants...), nil
	}

	if values, ok := n["enum"].([]any); ok && len(values) > 0 {
		return enumShape(values), nil
	}
	if c, ok := n["const"]; ok {
		return enumShape([]any{c}), nil
	}

	switch typ := n["type"].(type) {
	case string:
		return r.typed(typ, n)
	case []any:
		var variants []*shape.Type
		for _, v := range typ {
			name, _ := v.(string)
			t, err := r.typed(name, n)
			if err != nil {
				return nil, err
			}
			variants = append(variants, t)
		}
		return shape.Union(variants...), nil
	}

	switch {
	case n["properties"] != nil || n["additionalProperties"] != nil:
		return r.object(n)
	case n["items"] != nil:
		return r.typed("array", n)
	case hasRange(n):
		return shape.Number(), nil
	}
	return shape.Unknown(), nil
}

func (r *resolver) typed(typ string, n map[string]any) (*shape.Type, error) {
	switch typ {
	case "string":
		// date and date-time travel as strings on the wire.
		return shape.String(), nil
	case "integer", "number":
		return shape.Number(), nil
	case "boolean":
		return shape.Boolean(), nil
	case "null":
		return shape.Null(), nil
	case "array":
		elem, err := r.schema(n["items"])
		if err != nil {
			return nil, err
		}
		return shape.ArrayOf(elem), nil
	case "object":
		return r.object(n)
	}
	return shape.Unknown(), nil
}

func (r *resolver) object(n map[string]any) (*shape.Type, error) {
	if hasRange(n) {
		return shape.Number(), nil
	}
	props, _ := n["properties"].(map[string]any)
	if len(props) == 0 {
		switch ap := n["additionalProperties"].(type) {
		case map[string]any:
			elem, err := r.schema(ap)
			if err != nil {
				return nil, err
			}
			return shape.MapOf(elem), nil
		case bool:
			if ap {
				return shape.MapOf(shape.Unknown()), nil
			}
		}
		return shape.Nullable(shape.String()), nil
	}

	required := make(map[string]bool)
	for _, v := range asList(n["required"]) {
		if s, ok := v.(string); ok {
			required[s] = true
		}
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]shape.Field, 0, len(names))
	for _, name := range names {
		t, err := r.schema(props[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, shape.Field{Name: name, Type: t, Optional: !required[name]})
	}
	return shape.Object(fields...), nil
}

// allOf merges object branches: properties from later branches override
// earlier ones and the required lists are unioned. Properties declared next
// to allOf on the same node are merged last.
func (r *resolver) allOf(n map[string]any, branches []any) (*shape.Type, error) {
	var objects, others []*shape.Type
	for _, b := range branches {
		t, err := r.schema(b)
		if err != nil {
			return nil, err
		}
		if t.Kind == shape.KindObject {
			objects = append(objects, t)
		} else {
			others = append(others, t)
		}
	}
	if _, ok := n["properties"].(map[string]any); ok {
		own, err := r.object(n)
		if err != nil {
			return nil, err
		}
		if own.Kind == shape.KindObject {
			objects = append(objects, own)
		}
	}
	switch {
	case len(objects) > 0:
		return shape.Merge(objects...), nil
	case len(others) > 0:
		return others[len(others)-1], nil
	}
	return shape.Unknown(), nil
}

func enumShape(values []any) *shape.Type {
	variants := make([]*shape.Type, 0, len(values))
	for _, v := range values {
		switch x := v.(type) {
		case string:
			variants = append(variants, shape.Literal(x))
		case bool:
			variants = append(variants, shape.Boolean())
		case nil:
			variants = append(variants, shape.Null())
		default:
			if isNumber(x) {
				variants = append(variants, shape.Number())
			} else {
				variants = append(variants, shape.Unknown())
			}
		}
	}
	return shape.Union(variants...)
}

func hasRange(n map[string]any) bool {
	for _, k := range []string{"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum"} {
		if isNumber(n[k]) {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, uint64:
		return true
	}
	return false
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}
