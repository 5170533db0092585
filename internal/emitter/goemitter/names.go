package goemitter

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mark3labs/contractkit/internal/contract"
)

var initialisms = map[string]string{
	"api":  "API",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// camel suffixes rewritten after title casing, e.g. accountId -> AccountID.
var suffixes = []string{"Id", "Url", "Uuid", "Uri"}

// exported turns an arbitrary name into an exported Go identifier.
// A Caser is stateful, so each call gets its own.
func exported(name string) string {
	title := cases.Title(language.English, cases.NoLower)
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			b.WriteString(up)
			continue
		}
		p = title.String(p)
		for _, s := range suffixes {
			if len(p) > len(s) && strings.HasSuffix(p, s) && unicode.IsLower(rune(p[len(p)-len(s)-1])) {
				p = p[:len(p)-len(s)] + strings.ToUpper(s)
				break
			}
		}
		b.WriteString(p)
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "N" + out
	}
	return out
}

// segmentName names one path segment; placeholders read as "By<Name>".
func segmentName(seg string) string {
	if isPlaceholder(seg) {
		return "By" + exported(seg[1:len(seg)-1])
	}
	return exported(seg)
}

// endpointName derives the identifier of an endpoint variable, e.g.
// GET /users/{id} -> GetUsersByID.
func endpointName(method contract.Method, path string) string {
	var b strings.Builder
	b.WriteString(exported(strings.ToLower(string(method))))
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		b.WriteString(segmentName(seg))
		n++
	}
	if n == 0 {
		b.WriteString("Root")
	}
	return b.String()
}

// verbType is the phantom verb type for method in the contract package.
func verbType(method contract.Method) string {
	return "contract." + exported(strings.ToLower(string(method)))
}

func segments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isPlaceholder(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

// routeBase returns the literal leading segments every path shares, e.g.
// ["api"] for /api/accounts and /api/sessions. It is cut back until each
// path that extends past it continues with a literal segment, so modules
// are never named after a placeholder and a single resource keeps its own
// module.
func routeBase(paths []string) []string {
	var base []string
	for i, p := range paths {
		segs := segments(p)
		if i == 0 {
			for _, seg := range segs {
				if isPlaceholder(seg) {
					break
				}
				base = append(base, seg)
			}
			continue
		}
		n := 0
		for n < len(base) && n < len(segs) && segs[n] == base[n] {
			n++
		}
		base = base[:n]
	}
	for len(base) > 0 && !splitsAt(paths, len(base)) {
		base = base[:len(base)-1]
	}
	if len(base) == 0 {
		return nil
	}
	return base
}

// splitsAt reports whether cutting every path after n segments leaves a
// literal segment next in each longer path, and at least one such path.
func splitsAt(paths []string, n int) bool {
	found := false
	for _, p := range paths {
		segs := segments(p)
		if len(segs) <= n {
			continue
		}
		if isPlaceholder(segs[n]) {
			return false
		}
		found = true
	}
	return found
}

// moduleSegment returns the segment naming path's module below base, or ""
// when path has none.
func moduleSegment(path string, base []string) string {
	segs := segments(path)
	if len(segs) <= len(base) {
		return ""
	}
	for i, seg := range base {
		if segs[i] != seg {
			return ""
		}
	}
	if seg := segs[len(base)]; !isPlaceholder(seg) {
		return seg
	}
	return ""
}

// namer hands out identifiers unique within one generated file.
type namer struct {
	used map[string]bool
}

func newNamer(reserved ...string) *namer {
	n := &namer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

func (n *namer) unique(name string) string {
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	for i := 2; ; i++ {
		c := name + strconv.Itoa(i)
		if !n.used[c] {
			n.used[c] = true
			return c
		}
	}
}

// sanitizePackageName lowercases name and keeps letters, digits and
// underscores.
func sanitizePackageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), "0123456789_")
	return out
}
