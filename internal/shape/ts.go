package shape

import (
	"strconv"
	"strings"
)

// TS renders t as a TypeScript type expression. The output is deterministic
// and single-line.
func (t *Type) TS() string {
	var sb strings.Builder
	writeTS(&sb, t)
	return sb.String()
}

func writeTS(sb *strings.Builder, t *Type) {
	if t == nil {
		sb.WriteString("unknown")
		return
	}
	switch t.Kind {
	case KindAbsent:
		sb.WriteString("undefined")
	case KindLiteral:
		sb.WriteString(strconv.Quote(t.Literal))
	case KindRef:
		sb.WriteString(t.Name)
	case KindArray:
		if t.Elem != nil && t.Elem.Kind == KindUnion {
			sb.WriteByte('(')
			writeTS(sb, t.Elem)
			sb.WriteString(")[]")
			return
		}
		writeTS(sb, t.Elem)
		sb.WriteString("[]")
	case KindMap:
		sb.WriteString("Record<string, ")
		writeTS(sb, t.Elem)
		sb.WriteByte('>')
	case KindObject:
		if len(t.Fields) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(PropertyKey(f.Name))
			if f.Optional {
				sb.WriteByte('?')
			}
			sb.WriteString(": ")
			writeTS(sb, f.Type)
		}
		sb.WriteString(" }")
	case KindUnion:
		for i, v := range t.Variants {
			if i > 0 {
				sb.WriteString(" | ")
			}
			writeTS(sb, v)
		}
	default:
		sb.WriteString(string(t.Kind))
	}
}

// PropertyKey returns name as a TypeScript property key, quoting it when it
// is not a plain identifier.
func PropertyKey(name string) string {
	if name == "" {
		return `""`
	}
	for i, r := range name {
		ident := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		if i > 0 {
			ident = ident || (r >= '0' && r <= '9')
		}
		if !ident {
			return strconv.Quote(name)
		}
	}
	return name
}
