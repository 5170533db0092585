// Package stub serves a contract map over HTTP. Requests are validated
// against the declared params and body shapes; responses come from
// registered fixtures. It backs end-to-end tests of the typed clients.
package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mark3labs/contractkit/internal/auth"
	"github.com/mark3labs/contractkit/internal/client"
	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/shape"
)

type ctxKey int

const (
	paramsKey ctxKey = iota
	claimsKey
)

// Params returns the validated request params of a fixture request.
func Params(r *http.Request) map[string]any {
	p, _ := r.Context().Value(paramsKey).(map[string]any)
	return p
}

// Claims returns the verified token claims, or nil on unprotected routes.
func Claims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return c
}

type fixtureKey struct {
	method contract.Method
	path   string
}

// Server is an http.Handler for one contract map.
type Server struct {
	registry  *contract.Map
	router    *chi.Mux
	verifier  auth.Verifier
	protected []string

	mu       sync.RWMutex
	fixtures map[fixtureKey]http.HandlerFunc
}

// Option configures a Server.
type Option func(*Server)

// WithAuth requires a valid bearer token on routes under any of prefixes,
// or on every route when no prefix is given.
func WithAuth(v auth.Verifier, prefixes ...string) Option {
	return func(s *Server) {
		s.verifier = v
		s.protected = prefixes
	}
}

// New mounts every entry of m.
func New(m *contract.Map, opts ...Option) (*Server, error) {
	if m == nil {
		return nil, errors.New("stub: nil contract map")
	}
	s := &Server{
		registry: m,
		router:   chi.NewRouter(),
		fixtures: make(map[fixtureKey]http.HandlerFunc),
	}
	for _, o := range opts {
		o(s)
	}
	for _, e := range m.Entries() {
		if !strings.HasPrefix(e.Path, "/") {
			return nil, fmt.Errorf("stub: path %q must start with /", e.Path)
		}
		s.router.Method(string(e.Method), e.Path, s.endpoint(e))
	}
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, client.TextMessage(fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, client.TextMessage(fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path)))
	})
	return s, nil
}

// Registry returns the served contract.
func (s *Server) Registry() *contract.Map { return s.registry }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle registers a canned response. A 2xx body must match the declared
// response shape; a nil body sends no content.
func (s *Server) Handle(method contract.Method, path string, status int, body any) error {
	e, ok := s.registry.Lookup(path, method)
	if !ok {
		return s.registry.Check(path, method)
	}
	var payload []byte
	if body != nil {
		if status >= 200 && status < 300 {
			if err := e.Response.CheckValue("response", body); err != nil {
				return &contract.Violation{Method: method, Path: path, Err: err}
			}
		}
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("stub: encode fixture for %s %s: %w", method, path, err)
		}
	}
	s.set(method, path, func(w http.ResponseWriter, r *http.Request) {
		if payload == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(payload)
	})
	return nil
}

// HandleFunc registers a fixture handler. It runs after validation; use
// Params and Claims to read the request.
func (s *Server) HandleFunc(method contract.Method, path string, h http.HandlerFunc) error {
	if err := s.registry.Check(path, method); err != nil {
		return err
	}
	s.set(method, path, h)
	return nil
}

func (s *Server) set(method contract.Method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[fixtureKey{method, path}] = h
}

func (s *Server) fixture(method contract.Method, path string) http.HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fixtures[fixtureKey{method, path}]
}

func (s *Server) requiresAuth(path string) bool {
	if s.verifier == nil {
		return false
	}
	if len(s.protected) == 0 {
		return true
	}
	for _, p := range s.protected {
		if contract.UnderPrefix(path, p) {
			return true
		}
	}
	return false
}

func (s *Server) endpoint(e contract.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.requiresAuth(e.Path) {
			tok, ok := auth.BearerToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, client.TextMessage("missing bearer token"))
				return
			}
			claims, err := s.verifier.Verify(tok)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, client.TextMessage("invalid bearer token"))
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
		}

		params := requestParams(r, e)
		var problems []string
		if err := e.Params.Check("params", params); err != nil {
			problems = append(problems, mismatchMessages(err)...)
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, client.TextMessage("read body: "+err.Error()))
			return
		}
		if !e.Body.IsAbsent() {
			problems = append(problems, bodyProblems(e.Body, raw)...)
		}
		if len(problems) > 0 {
			writeError(w, r, http.StatusBadRequest, client.ListMessage(problems...))
			return
		}

		h := s.fixture(e.Method, e.Path)
		if h == nil {
			writeError(w, r, http.StatusNotImplemented, client.TextMessage(fmt.Sprintf("no fixture for %s %s", e.Method, e.Path)))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))
		h(w, r.WithContext(context.WithValue(r.Context(), paramsKey, params)))
	}
}

// requestParams gathers path and query values, converting them to the
// scalar types the params shape declares.
func requestParams(r *http.Request, e contract.Entry) map[string]any {
	if e.Params.IsAbsent() {
		return nil
	}
	out := make(map[string]any)
	for key, values := range r.URL.Query() {
		out[key] = coerce(fieldType(e.Params, key), values)
	}
	for _, name := range contract.ParamNames(e.Path) {
		out[name] = coerce(fieldType(e.Params, name), []string{chi.URLParam(r, name)})
	}
	return out
}

func fieldType(t *shape.Type, name string) *shape.Type {
	if f, ok := t.Field(name); ok {
		return f.Type
	}
	return nil
}

func coerce(t *shape.Type, values []string) any {
	if len(values) == 0 {
		return nil
	}
	if t == nil {
		return values[0]
	}
	switch t.Kind {
	case shape.KindNumber:
		if f, err := strconv.ParseFloat(values[0], 64); err == nil {
			return f
		}
	case shape.KindBoolean:
		if b, err := strconv.ParseBool(values[0]); err == nil {
			return b
		}
	case shape.KindArray:
		list := make([]any, 0, len(values))
		for _, v := range values {
			list = append(list, coerce(t.Elem, []string{v}))
		}
		return list
	case shape.KindUnion:
		for _, variant := range t.Variants {
			v := coerce(variant, values)
			if variant.Check("", v) == nil {
				return v
			}
		}
	}
	return values[0]
}

func bodyProblems(t *shape.Type, raw []byte) []string {
	var body any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return []string{"body: invalid JSON"}
		}
	}
	if err := t.Check("body", body); err != nil {
		return mismatchMessages(err)
	}
	return nil
}

func mismatchMessages(err error) []string {
	var ms shape.Mismatches
	if errors.As(err, &ms) {
		return ms.Messages()
	}
	return []string{err.Error()}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg client.Message) {
	body := client.ErrorBody{
		StatusCode: status,
		Message:    msg,
		Error:      http.StatusText(status),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
