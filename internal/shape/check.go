package shape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrMismatch is matched (via errors.Is) by every error returned from Check.
var ErrMismatch = errors.New("shape: value does not match type")

// Mismatch describes a single location where a value disagrees with a type.
type Mismatch struct {
	Path string
	Want string
	Got  string
}

func (m *Mismatch) String() string {
	if m.Got == "" {
		return fmt.Sprintf("%s: expected %s", m.Path, m.Want)
	}
	return fmt.Sprintf("%s: expected %s, got %s", m.Path, m.Want, m.Got)
}

// Mismatches is the error returned by Check. It lists every violation found.
type Mismatches []*Mismatch

func (ms Mismatches) Error() string {
	return strings.Join(ms.Messages(), "; ")
}

// Messages returns one human readable line per violation.
func (ms Mismatches) Messages() []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}

func (ms Mismatches) Is(target error) bool { return target == ErrMismatch }

// Check validates a decoded JSON value (as produced by encoding/json into an
// interface{}) against t. root names the value in violation paths.
func (t *Type) Check(root string, v any) error {
	var ms Mismatches
	check(t, root, v, &ms)
	if len(ms) == 0 {
		return nil
	}
	return ms
}

// CheckValue converts an arbitrary Go value to its JSON form and validates it.
func (t *Type) CheckValue(root string, v any) error {
	jv, err := JSONValue(v)
	if err != nil {
		return err
	}
	return t.Check(root, jv)
}

// JSONValue round-trips v through encoding/json, yielding nil, bool,
// json.Number, string, []any or map[string]any values. Numbers stay
// json.Number so integers beyond 2^53 keep every digit.
func JSONValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if b, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("encode json value: %w", err)
		}
	}
	if len(b) == 0 {
		return nil, nil
	}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var out any
	if err := d.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json value: %w", err)
	}
	return out, nil
}

func check(t *Type, path string, v any, ms *Mismatches) {
	if t == nil {
		return
	}
	fail := func() {
		*ms = append(*ms, &Mismatch{Path: path, Want: t.TS(), Got: describe(v)})
	}
	switch t.Kind {
	case KindVoid, KindUnknown, KindAny, KindRef:
	case KindNever:
		*ms = append(*ms, &Mismatch{Path: path, Want: "never"})
	case KindAbsent:
		switch x := v.(type) {
		case nil:
		case map[string]any:
			if len(x) > 0 {
				fail()
			}
		default:
			fail()
		}
	case KindString:
		if _, ok := v.(string); !ok {
			fail()
		}
	case KindNumber:
		if !isNumber(v) {
			fail()
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			fail()
		}
	case KindNull:
		if v != nil {
			fail()
		}
	case KindLiteral:
		if s, ok := v.(string); !ok || s != t.Literal {
			fail()
		}
	case KindArray:
		list, ok := v.([]any)
		if !ok {
			fail()
			return
		}
		for i, item := range list {
			check(t.Elem, fmt.Sprintf("%s[%d]", path, i), item, ms)
		}
	case KindMap:
		obj, ok := v.(map[string]any)
		if !ok {
			fail()
			return
		}
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			check(t.Elem, path+"."+k, obj[k], ms)
		}
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			fail()
			return
		}
		for _, f := range t.Fields {
			val, present := obj[f.Name]
			if !present || (val == nil && f.Optional) {
				if !f.Optional {
					*ms = append(*ms, &Mismatch{Path: path + "." + f.Name, Want: f.Type.TS(), Got: "missing"})
				}
				continue
			}
			check(f.Type, path+"."+f.Name, val, ms)
		}
	case KindUnion:
		for _, variant := range t.Variants {
			var trial Mismatches
			check(variant, path, v, &trial)
			if len(trial) == 0 {
				return
			}
		}
		fail()
	default:
		fail()
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
