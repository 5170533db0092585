package spec

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrExternalRef is returned for $ref values that leave the document.
	ErrExternalRef = errors.New("external $ref is not supported")
	// ErrUnresolvedRef is returned when a local $ref points nowhere.
	ErrUnresolvedRef = errors.New("unresolved $ref")
)

// RefError names the reference that failed to resolve.
type RefError struct {
	Ref string
	Err error
}

func (e *RefError) Error() string { return fmt.Sprintf("%v %q", e.Err, e.Ref) }
func (e *RefError) Unwrap() error { return e.Err }

// IsExternalRef reports whether ref points outside the current document,
// for example "https://example.com/schemas.json#/Pet" or "common.yaml#/Pet".
func IsExternalRef(ref string) bool {
	return !strings.HasPrefix(ref, "#")
}

// RefName returns the trailing segment of a reference, e.g. "Pet" for
// "#/components/schemas/Pet".
func RefName(ref string) string {
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return unescapeToken(ref)
}

// Deref resolves a local JSON pointer reference against the document.
func (d *Document) Deref(ref string) (any, error) {
	return Lookup(d.Raw, ref)
}

// Lookup walks a "#/a/b/0" style pointer through a decoded document tree.
func Lookup(root map[string]any, ref string) (any, error) {
	if IsExternalRef(ref) {
		return nil, &RefError{Ref: ref, Err: ErrExternalRef}
	}
	frag := strings.TrimPrefix(ref, "#")
	if unescaped, err := url.PathUnescape(frag); err == nil {
		frag = unescaped
	}
	var cur any = root
	if frag == "" || frag == "/" {
		return cur, nil
	}
	for _, tok := range strings.Split(strings.TrimPrefix(frag, "/"), "/") {
		tok = unescapeToken(tok)
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[tok]
			if !ok {
				return nil, &RefError{Ref: ref, Err: ErrUnresolvedRef}
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(node) {
				return nil, &RefError{Ref: ref, Err: ErrUnresolvedRef}
			}
			cur = node[i]
		default:
			return nil, &RefError{Ref: ref, Err: ErrUnresolvedRef}
		}
	}
	return cur, nil
}

// EscapeToken escapes a single pointer segment ("/" -> "~1", "~" -> "~0").
func EscapeToken(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func unescapeToken(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}

// ExternalRefs returns every external $ref found anywhere in the tree,
// sorted and deduplicated.
func ExternalRefs(node any) []string {
	seen := make(map[string]bool)
	var walk func(n any)
	walk = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if ref, ok := v["$ref"].(string); ok && IsExternalRef(ref) {
				seen[ref] = true
			}
			for _, child := range v {
				walk(child)
			}
		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(node)
	out := make([]string, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}
