package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mark3labs/contractkit/internal/shape"
)

var (
	// ErrUnknownPath is returned for a path template the contract does not declare.
	ErrUnknownPath = errors.New("contract: unknown path")
	// ErrMethodNotAllowed is returned when the path exists but not for the method.
	ErrMethodNotAllowed = errors.New("contract: method not allowed for path")
	// ErrOutOfScope is returned when a path falls outside a scoped route prefix.
	ErrOutOfScope = errors.New("contract: path outside route scope")
	// ErrDuplicateEntry is returned when a (path, method) pair is declared twice.
	ErrDuplicateEntry = errors.New("contract: duplicate entry")
)

// Entry is one (path, method) pair of the contract.
type Entry struct {
	Path     string
	Method   Method
	Params   *shape.Type
	Body     *shape.Type
	Response *shape.Type
	Summary  string
	Tags     []string
}

// Violation reports a request that disagrees with the contract.
type Violation struct {
	Method Method
	Path   string
	Err    error
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s %s: %v", v.Method, v.Path, v.Err)
}

func (v *Violation) Unwrap() error { return v.Err }

// Map is the immutable endpoint registry: path -> method -> entry.
// It is safe for concurrent use.
type Map struct {
	entries map[string]map[Method]Entry
}

// New builds a Map. Missing params or body shapes default to absent and a
// missing response to unknown.
func New(entries ...Entry) (*Map, error) {
	m := &Map{entries: make(map[string]map[Method]Entry)}
	for _, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("contract: entry with empty path")
		}
		if _, err := ParseMethod(string(e.Method)); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Path, err)
		}
		if e.Params == nil {
			e.Params = shape.Absent()
		}
		if e.Body == nil {
			e.Body = shape.Absent()
		}
		if e.Response == nil {
			e.Response = shape.Unknown()
		}
		byMethod := m.entries[e.Path]
		if byMethod == nil {
			byMethod = make(map[Method]Entry)
			m.entries[e.Path] = byMethod
		}
		if _, dup := byMethod[e.Method]; dup {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateEntry, e.Method, e.Path)
		}
		byMethod[e.Method] = e
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(entries ...Entry) *Map {
	m, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of (path, method) pairs.
func (m *Map) Len() int {
	n := 0
	for _, byMethod := range m.entries {
		n += len(byMethod)
	}
	return n
}

// Paths returns every path template, sorted.
func (m *Map) Paths() []string {
	return slices.Sorted(maps.Keys(m.entries))
}

// Methods returns the methods declared for path, sorted alphabetically, or
// nil if the path is unknown.
func (m *Map) Methods(path string) []Method {
	byMethod, ok := m.entries[path]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(byMethod))
}

// Lookup returns the entry for (path, method).
func (m *Map) Lookup(path string, method Method) (Entry, bool) {
	e, ok := m.entries[path][method]
	return e, ok
}

// Entries returns all entries ordered by path then method.
func (m *Map) Entries() []Entry {
	var out []Entry
	for _, p := range m.Paths() {
		for _, meth := range m.Methods(p) {
			out = append(out, m.entries[p][meth])
		}
	}
	return out
}

// Params returns the params shape for (path, method), or never if the pair
// is not declared.
func (m *Map) Params(path string, method Method) *shape.Type {
	if e, ok := m.Lookup(path, method); ok {
		return e.Params
	}
	return shape.Never()
}

// Body returns the body shape for (path, method), or never.
func (m *Map) Body(path string, method Method) *shape.Type {
	if e, ok := m.Lookup(path, method); ok {
		return e.Body
	}
	return shape.Never()
}

// Response returns the response shape for (path, method), or never.
func (m *Map) Response(path string, method Method) *shape.Type {
	if e, ok := m.Lookup(path, method); ok {
		return e.Response
	}
	return shape.Never()
}

// PathsFor returns the sorted paths that declare method.
func (m *Map) PathsFor(method Method) []string {
	var out []string
	for _, p := range m.Paths() {
		if _, ok := m.entries[p][method]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PathsUnder returns the sorted paths beneath a route prefix. When methods
// are given, only paths declaring at least one of them are kept.
func (m *Map) PathsUnder(prefix string, methods ...Method) []string {
	var out []string
	for _, p := range m.Paths() {
		if !UnderPrefix(p, prefix) {
			continue
		}
		if len(methods) > 0 && !slices.ContainsFunc(methods, func(meth Method) bool {
			_, ok := m.entries[p][meth]
			return ok
		}) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Scope returns a registry restricted to the paths beneath prefix.
func (m *Map) Scope(prefix string) *Map {
	scoped := &Map{entries: make(map[string]map[Method]Entry)}
	for _, p := range m.PathsUnder(prefix) {
		scoped.entries[p] = m.entries[p]
	}
	return scoped
}

// Check reports whether (path, method) is declared.
func (m *Map) Check(path string, method Method) error {
	byMethod, ok := m.entries[path]
	if !ok {
		return &Violation{Method: method, Path: path, Err: ErrUnknownPath}
	}
	if _, ok := byMethod[method]; !ok {
		return &Violation{Method: method, Path: path, Err: ErrMethodNotAllowed}
	}
	return nil
}

// Validate checks a request against the contract: the pair must be declared
// and params and body must match their shapes. params and body may be any
// JSON-encodable Go values; nil means "not provided".
func (m *Map) Validate(path string, method Method, params, body any) error {
	if err := m.Check(path, method); err != nil {
		return err
	}
	e := m.entries[path][method]
	if err := e.Params.CheckValue("params", params); err != nil {
		return &Violation{Method: method, Path: path, Err: err}
	}
	if err := e.Body.CheckValue("body", body); err != nil {
		return &Violation{Method: method, Path: path, Err: err}
	}
	return nil
}

type entryJSON struct {
	Params   *shape.Type `json:"params"`
	Body     *shape.Type `json:"body"`
	Response *shape.Type `json:"response"`
	Summary  string      `json:"summary,omitempty"`
	Tags     []string    `json:"tags,omitempty"`
}

// MarshalJSON encodes the registry as {path: {METHOD: entry}}. Keys are
// emitted in sorted order.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[Method]entryJSON, len(m.entries))
	for p, byMethod := range m.entries {
		row := make(map[Method]entryJSON, len(byMethod))
		for meth, e := range byMethod {
			row[meth] = entryJSON{Params: e.Params, Body: e.Body, Response: e.Response, Summary: e.Summary, Tags: e.Tags}
		}
		out[p] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("contract: decode registry: %w", err)
	}
	var entries []Entry
	for p, row := range raw {
		for meth, e := range row {
			method, err := ParseMethod(meth)
			if err != nil {
				return fmt.Errorf("contract: decode registry %s: %w", p, err)
			}
			entries = append(entries, Entry{Path: p, Method: method, Params: e.Params, Body: e.Body, Response: e.Response, Summary: e.Summary, Tags: e.Tags})
		}
	}
	built, err := New(entries...)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}

// Parse decodes a registry from JSON.
func Parse(data []byte) (*Map, error) {
	m := &Map{}
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return m, nil
}

// MustParse is like Parse but panics on error. It is intended for registries
// embedded in generated packages.
func MustParse(data []byte) *Map {
	m, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return m
}
