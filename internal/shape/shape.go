// Package shape models the structural types carried by an API contract:
// request params, request bodies and response payloads.
//
// A Type is an immutable tree. Object fields are kept sorted by name and union
// variants are deduplicated, so two Types built from the same input render
// identically.
package shape

import (
	"sort"
)

// Kind identifies the variant of a Type.
type Kind string

const (
	// KindAbsent marks "no params" or "no body". It is distinct from KindAny.
	KindAbsent  Kind = "absent"
	KindNever   Kind = "never"
	KindVoid    Kind = "void"
	KindUnknown Kind = "unknown"
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindLiteral Kind = "literal"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindMap     Kind = "map"
	KindUnion   Kind = "union"
	// KindRef is a bare reference name, produced when a recursive schema
	// re-enters itself.
	KindRef Kind = "ref"
)

// Type is a node of the structural type tree.
type Type struct {
	Kind     Kind    `json:"kind"`
	Literal  string  `json:"literal,omitempty"`
	Name     string  `json:"name,omitempty"`
	Elem     *Type   `json:"elem,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Variants []*Type `json:"variants,omitempty"`
}

// Field is a named member of an object type.
type Field struct {
	Name     string `json:"name"`
	Type     *Type  `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

func Absent() *Type  { return &Type{Kind: KindAbsent} }
func Never() *Type   { return &Type{Kind: KindNever} }
func Void() *Type    { return &Type{Kind: KindVoid} }
func Unknown() *Type { return &Type{Kind: KindUnknown} }
func Any() *Type     { return &Type{Kind: KindAny} }
func String() *Type  { return &Type{Kind: KindString} }
func Number() *Type  { return &Type{Kind: KindNumber} }
func Boolean() *Type { return &Type{Kind: KindBoolean} }
func Null() *Type    { return &Type{Kind: KindNull} }

// Literal returns a string literal type.
func Literal(v string) *Type { return &Type{Kind: KindLiteral, Literal: v} }

// Ref returns a bare named reference.
func Ref(name string) *Type { return &Type{Kind: KindRef, Name: name} }

// ArrayOf returns an array type with the given element type. A nil element
// is treated as unknown.
func ArrayOf(elem *Type) *Type {
	if elem == nil {
		elem = Unknown()
	}
	return &Type{Kind: KindArray, Elem: elem}
}

// MapOf returns a string-keyed record type.
func MapOf(elem *Type) *Type {
	if elem == nil {
		elem = Unknown()
	}
	return &Type{Kind: KindMap, Elem: elem}
}

// Object returns an object type. Fields are sorted by name; when the same
// name appears more than once the last occurrence wins.
func Object(fields ...Field) *Type {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			f.Type = Unknown()
		}
		byName[f.Name] = f
	}
	out := make([]Field, 0, len(byName))
	for _, f := range byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return &Type{Kind: KindObject, Fields: out}
}

// Union returns the union of the given variants. Nested unions are
// flattened and duplicates removed while keeping first-seen order. A union of
// one variant is that variant; a union of none is never.
func Union(variants ...*Type) *Type {
	var flat []*Type
	seen := make(map[string]bool)
	var add func(t *Type)
	add = func(t *Type) {
		if t == nil {
			return
		}
		if t.Kind == KindUnion {
			for _, v := range t.Variants {
				add(v)
			}
			return
		}
		key := t.TS()
		if seen[key] {
			return
		}
		seen[key] = true
		flat = append(flat, t)
	}
	for _, v := range variants {
		add(v)
	}
	switch len(flat) {
	case 0:
		return Never()
	case 1:
		return flat[0]
	}
	return &Type{Kind: KindUnion, Variants: flat}
}

// Nullable returns t | null.
func Nullable(t *Type) *Type { return Union(t, Null()) }

// Field returns the named field of an object type.
func (t *Type) Field(name string) (Field, bool) {
	if t == nil || t.Kind != KindObject {
		return Field{}, false
	}
	i := sort.Search(len(t.Fields), func(i int) bool { return t.Fields[i].Name >= name })
	if i < len(t.Fields) && t.Fields[i].Name == name {
		return t.Fields[i], true
	}
	return Field{}, false
}

// IsAbsent reports whether t is nil or the absent marker.
func (t *Type) IsAbsent() bool { return t == nil || t.Kind == KindAbsent }

// IsNever reports whether t is unsatisfiable.
func (t *Type) IsNever() bool { return t != nil && t.Kind == KindNever }

// Equal reports whether two types are structurally identical.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.TS() == o.TS()
}

// Merge combines object types: fields from later objects override earlier
// ones, and a field is required if any contributing object requires it.
// Non-object inputs are ignored.
func Merge(objects ...*Type) *Type {
	fields := make(map[string]Field)
	for _, o := range objects {
		if o == nil || o.Kind != KindObject {
			continue
		}
		for _, f := range o.Fields {
			prev, ok := fields[f.Name]
			if ok && !prev.Optional {
				f.Optional = false
			}
			fields[f.Name] = f
		}
	}
	list := make([]Field, 0, len(fields))
	for _, f := range fields {
		list = append(list, f)
	}
	return Object(list...)
}
