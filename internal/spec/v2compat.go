package spec

import (
	"strings"
)

// preprocessV2 rewrites Swagger 2.0 operations that openapi2conv cannot
// convert. It edits the tree in place and reports whether anything changed.
//
//   - Several "in: body" parameters on one operation are folded into a single
//     body parameter whose schema is an object with one property per original
//     parameter.
//   - Body parameters mixed with formData parameters are turned into formData
//     parameters and the operation is marked as consuming multipart/form-data.
func preprocessV2(doc map[string]any) bool {
	paths, _ := doc["paths"].(map[string]any)
	modified := false
	for _, item := range paths {
		ops, _ := item.(map[string]any)
		for method, node := range ops {
			if !isV2Verb(method) {
				continue
			}
			op, _ := node.(map[string]any)
			if op == nil {
				continue
			}
			if rewriteV2Operation(op) {
				modified = true
			}
		}
	}
	return modified
}

func isV2Verb(method string) bool {
	switch strings.ToLower(method) {
	case "get", "post", "put", "delete", "patch", "options", "head":
		return true
	}
	return false
}

func rewriteV2Operation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, others []map[string]any
	hasFormData := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch strings.ToLower(asString(pm["in"])) {
		case "body":
			bodies = append(bodies, pm)
			continue
		case "formdata":
			hasFormData = true
		}
		others = append(others, pm)
	}

	switch {
	case len(bodies) == 0:
		return false
	case hasFormData:
		out := make([]any, 0, len(params))
		for _, pm := range others {
			out = append(out, pm)
		}
		for _, pm := range bodies {
			out = append(out, formDataFromBodyParam(pm))
		}
		op["parameters"] = out
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case len(bodies) > 1:
		props := map[string]any{}
		var required []any
		for _, pm := range bodies {
			name := paramName(pm)
			schema := schemaFromParam(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if req, _ := pm["required"].(bool); req {
				required = append(required, name)
			}
		}
		bodySchema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			bodySchema["required"] = required
		}
		out := []any{map[string]any{"in": "body", "name": "body", "schema": bodySchema}}
		for _, pm := range others {
			out = append(out, pm)
		}
		op["parameters"] = out
		return true
	}
	return false
}

func paramName(pm map[string]any) string {
	if name := asString(pm["name"]); name != "" {
		return name
	}
	return "field"
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

// schemaFromParam returns the parameter's schema, synthesizing one from the
// v2 type/items/format fields when absent.
func schemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t := asString(pm["type"])
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f := asString(pm["format"]); f != "" {
		m["format"] = f
	}
	return m
}

func formDataFromBodyParam(pm map[string]any) map[string]any {
	out := map[string]any{"in": "formData", "name": paramName(pm)}
	if desc := asString(pm["description"]); desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	typ := "string"
	if sch := schemaFromParam(pm); sch != nil {
		if t := asString(sch["type"]); t != "" && t != "object" {
			typ = t
		}
		if it, ok := sch["items"].(map[string]any); ok && typ == "array" {
			out["items"] = it
		}
		if f := asString(sch["format"]); f != "" {
			out["format"] = f
		}
	}
	out["type"] = typ
	return out
}
