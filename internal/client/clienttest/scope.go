package clienttest

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/contractkit/internal/client"
	"github.com/mark3labs/contractkit/internal/contract"
)

// Scoped is a test client restricted to the routes of module M. The typed
// helpers only accept endpoints routed to M, so addressing another module's
// endpoint does not compile.
type Scoped[M contract.Module] struct {
	c *Client
}

// Scope binds c to module M.
func Scope[M contract.Module](c *Client) *Scoped[M] {
	return &Scoped[M]{c: c}
}

// Prefix returns the module's route prefix.
func (s *Scoped[M]) Prefix() string {
	var m M
	return m.Prefix()
}

// Paths lists the contract paths the scope may address. It needs a client
// created WithContract.
func (s *Scoped[M]) Paths() []string {
	if s.c.registry == nil {
		return nil
	}
	return s.c.registry.PathsUnder(s.Prefix())
}

// Request is the untyped entry point; paths outside the module prefix fail
// with contract.ErrOutOfScope.
func (s *Scoped[M]) Request(method, path string, params, body any, opts ...client.RequestOption) (client.Response[json.RawMessage], error) {
	if _, err := contract.ParseMethod(method); err != nil {
		return client.Response[json.RawMessage]{}, err
	}
	if !contract.UnderPrefix(path, s.Prefix()) {
		return client.Response[json.RawMessage]{}, fmt.Errorf("%w: %s is not under %s", contract.ErrOutOfScope, path, s.Prefix())
	}
	return s.c.Request(method, path, params, body, opts...)
}

func ScopedGet[M contract.Module, P, B, R any](s *Scoped[M], ep contract.Routed[M, contract.Get, P, B, R], params P, opts ...client.RequestOption) (client.Response[R], error) {
	return Get(s.c, ep.Endpoint, params, opts...)
}

func ScopedPost[M contract.Module, P, B, R any](s *Scoped[M], ep contract.Routed[M, contract.Post, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Post(s.c, ep.Endpoint, params, body, opts...)
}

func ScopedPut[M contract.Module, P, B, R any](s *Scoped[M], ep contract.Routed[M, contract.Put, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Put(s.c, ep.Endpoint, params, body, opts...)
}

func ScopedPatch[M contract.Module, P, B, R any](s *Scoped[M], ep contract.Routed[M, contract.Patch, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Patch(s.c, ep.Endpoint, params, body, opts...)
}

func ScopedDelete[M contract.Module, P, B, R any](s *Scoped[M], ep contract.Routed[M, contract.Delete, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Delete(s.c, ep.Endpoint, params, body, opts...)
}

func ScopedAuthGet[M contract.Module, P, B, R any](s *Scoped[M], token string, ep contract.Routed[M, contract.Get, P, B, R], params P, opts ...client.RequestOption) (client.Response[R], error) {
	return AuthGet(s.c, token, ep.Endpoint, params, opts...)
}

func ScopedAuthPost[M contract.Module, P, B, R any](s *Scoped[M], token string, ep contract.Routed[M, contract.Post, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return AuthPost(s.c, token, ep.Endpoint, params, body, opts...)
}

func ScopedAuthPut[M contract.Module, P, B, R any](s *Scoped[M], token string, ep contract.Routed[M, contract.Put, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return AuthPut(s.c, token, ep.Endpoint, params, body, opts...)
}

func ScopedAuthPatch[M contract.Module, P, B, R any](s *Scoped[M], token string, ep contract.Routed[M, contract.Patch, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return AuthPatch(s.c, token, ep.Endpoint, params, body, opts...)
}

func ScopedAuthDelete[M contract.Module, P, B, R any](s *Scoped[M], token string, ep contract.Routed[M, contract.Delete, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return AuthDelete(s.c, token, ep.Endpoint, params, body, opts...)
}
