package contract

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// HasParams reports whether a path template contains any {name} placeholder.
func HasParams(path string) bool {
	return placeholderRe.MatchString(path)
}

// ParamNames returns the placeholder names of a path template in order of
// first appearance.
func ParamNames(path string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(path, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Substitute replaces every {key} in path with the string form of
// values[key]. values must be a map keyed by strings; anything else, nil,
// or an empty map leaves path unchanged. Placeholders without a matching
// key are kept verbatim. Values are inserted as-is without URL escaping.
func Substitute(path string, values any) string {
	rv := reflect.ValueOf(values)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.Len() == 0 {
		return path
	}
	return placeholderRe.ReplaceAllStringFunc(path, func(ph string) string {
		key := ph[1 : len(ph)-1]
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return ph
		}
		return FormatValue(v.Interface())
	})
}

// FormatValue renders a scalar the way it appears in a URL path or query:
// integral floats without a fractional part, everything else via fmt.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// UnderPrefix reports whether path lies beneath a route prefix. Matching is
// segment aligned: "/accounts" covers "/accounts" and "/accounts/{id}" but
// not "/accountsettings". A leading slash on prefix is optional.
func UnderPrefix(path, prefix string) bool {
	prefix = normalizePrefix(prefix)
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			prefix = "/"
		}
	}
	return prefix
}
