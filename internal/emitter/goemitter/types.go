package goemitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/contractkit/internal/shape"
)

// typeWriter maps shapes onto Go type expressions. Object shapes become
// named struct declarations, collected in decls parent first.
type typeWriter struct {
	names *namer
	decls []string
}

func (w *typeWriter) goType(t *shape.Type, name string) string {
	if t == nil {
		return "json.RawMessage"
	}
	switch t.Kind {
	case shape.KindAbsent, shape.KindNever:
		return "contract.None"
	case shape.KindVoid:
		return "contract.Void"
	case shape.KindString, shape.KindLiteral:
		return "string"
	case shape.KindNumber:
		return "float64"
	case shape.KindBoolean:
		return "bool"
	case shape.KindAny:
		return "any"
	case shape.KindArray:
		return "[]" + w.goType(t.Elem, name+"Item")
	case shape.KindMap:
		return "map[string]" + w.goType(t.Elem, name+"Value")
	case shape.KindObject:
		return w.declare(name, t)
	case shape.KindUnion:
		return w.union(t, name)
	}
	// unknown, null and recursive references stay undecoded.
	return "json.RawMessage"
}

func (w *typeWriter) union(t *shape.Type, name string) string {
	var rest []*shape.Type
	nullable := false
	for _, v := range t.Variants {
		if v.Kind == shape.KindNull {
			nullable = true
			continue
		}
		rest = append(rest, v)
	}
	stringy := len(rest) > 0
	for _, v := range rest {
		if v.Kind != shape.KindString && v.Kind != shape.KindLiteral {
			stringy = false
		}
	}
	var inner string
	switch {
	case stringy:
		inner = "string"
	case len(rest) == 1:
		inner = w.goType(rest[0], name)
	default:
		return "json.RawMessage"
	}
	if nullable {
		return pointerTo(inner)
	}
	return inner
}

func (w *typeWriter) declare(name string, t *shape.Type) string {
	name = w.names.unique(name)
	idx := len(w.decls)
	w.decls = append(w.decls, "")

	fieldNames := newNamer()
	var b strings.Builder
	fmt.Fprintf(&b, "type %s struct {\n", name)
	for _, f := range t.Fields {
		if strings.ContainsAny(f.Name, "`,\"") {
			fmt.Fprintf(&b, "\t// property %s has no Go field\n", strconv.Quote(f.Name))
			continue
		}
		ident := exported(f.Name)
		if ident == "" {
			ident = "Field"
		}
		ident = fieldNames.unique(ident)
		typ := w.goType(f.Type, name+ident)
		tag := f.Name
		if tag == "-" {
			tag = "-,"
		}
		if f.Optional {
			typ = pointerTo(typ)
			tag += ",omitempty"
		}
		fmt.Fprintf(&b, "\t%s %s `json:%s`\n", ident, typ, strconv.Quote(tag))
	}
	b.WriteString("}\n")
	w.decls[idx] = b.String()
	return name
}

// pointerTo makes scalar and struct types optional. Slices, maps and raw
// values already have a zero value that omits cleanly.
func pointerTo(typ string) string {
	switch {
	case strings.HasPrefix(typ, "*"), strings.HasPrefix(typ, "[]"), strings.HasPrefix(typ, "map["),
		typ == "json.RawMessage", typ == "any", strings.HasPrefix(typ, "contract."):
		return typ
	}
	return "*" + typ
}
