package generator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/shape"
	"github.com/mark3labs/contractkit/internal/spec"
)

const jsonMediaType = "application/json"

// successCodes are consulted in order for the response payload.
var successCodes = []string{"200", "201", "202"}

// Build extracts every route of doc and resolves its params, body and
// response shapes. filters restrict which routes are kept.
func Build(doc *spec.Document, filters ...spec.BuildOption) (*contract.Map, error) {
	routes, err := spec.ExtractRoutes(doc, filters...)
	if err != nil {
		return nil, err
	}
	r := newResolver(doc)
	entries := make([]contract.Entry, 0, len(routes))
	for _, route := range routes {
		e, err := r.entry(route)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", route.Method, route.Path, err)
		}
		entries = append(entries, e)
	}
	return contract.New(entries...)
}

func (r *resolver) entry(route spec.Route) (contract.Entry, error) {
	params, err := r.params(route)
	if err != nil {
		return contract.Entry{}, err
	}
	body := shape.Absent()
	if route.Method != contract.GET {
		if body, err = r.body(route.RequestBody); err != nil {
			return contract.Entry{}, err
		}
	}
	resp, err := r.response(route.Responses)
	if err != nil {
		return contract.Entry{}, err
	}
	return contract.Entry{
		Path:     route.Path,
		Method:   route.Method,
		Params:   params,
		Body:     body,
		Response: resp,
		Summary:  route.Summary,
		Tags:     route.Tags,
	}, nil
}

// params collects path parameters and, for GET, query parameters. A query
// parameter replaces a path parameter of the same name.
func (r *resolver) params(route spec.Route) (*shape.Type, error) {
	var fields []shape.Field
	add := func(in string) error {
		for _, p := range route.Parameters {
			if p.In != in {
				continue
			}
			t, err := r.schema(p.Schema)
			if err != nil {
				return err
			}
			fields = append(fields, shape.Field{Name: p.Name, Type: t, Optional: !p.Required})
		}
		return nil
	}
	if err := add(spec.InPath); err != nil {
		return nil, err
	}
	if route.Method == contract.GET {
		if err := add(spec.InQuery); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return shape.Absent(), nil
	}
	return shape.Object(fields...), nil
}

func (r *resolver) body(node any) (*shape.Type, error) {
	rb, err := r.deref(node)
	if err != nil || rb == nil {
		return shape.Absent(), err
	}
	schema, ok := jsonSchema(rb)
	if !ok {
		return shape.Absent(), nil
	}
	return r.schema(schema)
}

// response picks the first of 200/201/202. A 204, or a success response
// without a JSON schema, means no payload; no success response at all
// leaves the payload unknown.
func (r *resolver) response(responses map[string]any) (*shape.Type, error) {
	for _, code := range successCodes {
		node, ok := responses[code]
		if !ok {
			continue
		}
		resp, err := r.deref(node)
		if err != nil {
			return nil, err
		}
		schema, ok := jsonSchema(resp)
		if !ok {
			return shape.Void(), nil
		}
		return r.schema(schema)
	}
	for code := range responses {
		if code == "204" || (len(code) == 3 && code[0] == '2') || strings.EqualFold(code, "2XX") {
			return shape.Void(), nil
		}
	}
	return shape.Unknown(), nil
}

// deref follows $ref chains on requestBody and response objects.
func (r *resolver) deref(node any) (map[string]any, error) {
	m, _ := node.(map[string]any)
	seen := make(map[string]bool)
	for m != nil {
		ref, ok := m["$ref"].(string)
		if !ok {
			return m, nil
		}
		if spec.IsExternalRef(ref) {
			return nil, &spec.RefError{Ref: ref, Err: spec.ErrExternalRef}
		}
		if seen[ref] {
			return nil, &spec.RefError{Ref: ref, Err: spec.ErrUnresolvedRef}
		}
		seen[ref] = true
		target, err := r.doc.Deref(ref)
		if err != nil {
			return nil, err
		}
		m, _ = target.(map[string]any)
	}
	return nil, nil
}

// jsonSchema returns the application/json schema of a request body or
// response object. Media types with parameters ("application/json;
// charset=utf-8") count as JSON.
func jsonSchema(obj map[string]any) (any, bool) {
	content, _ := obj["content"].(map[string]any)
	if media, ok := content[jsonMediaType].(map[string]any); ok && media["schema"] != nil {
		return media["schema"], true
	}
	for _, mt := range slices.Sorted(maps.Keys(content)) {
		if !strings.HasPrefix(mt, jsonMediaType+";") {
			continue
		}
		if media, ok := content[mt].(map[string]any); ok && media["schema"] != nil {
			return media["schema"], true
		}
	}
	return nil, false
}
