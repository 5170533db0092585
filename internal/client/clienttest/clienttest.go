// Package clienttest drives an http.Handler in-process with the same typed
// calls as package client. Responses are classified by status code alone.
// Unlike the production client, a timeout or a handler panic is returned
// as an error: in-process both mean the test or its harness is broken.
package clienttest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/mark3labs/contractkit/internal/client"
	"github.com/mark3labs/contractkit/internal/contract"
)

// ErrTimeout is returned when the handler does not finish within the
// per-call timeout.
var ErrTimeout = errors.New("clienttest: request timed out")

// PanicError carries the value a handler panicked with.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("clienttest: handler panicked: %v", e.Value)
}

// Client simulates requests against one handler.
type Client struct {
	handler  http.Handler
	registry *contract.Map
	header   http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithContract validates every request against m before it is simulated.
func WithContract(m *contract.Map) Option {
	return func(c *Client) { c.registry = m }
}

// WithDefaultHeader sets a header on every request. Per-call headers win.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// New returns a test client for h.
func New(h http.Handler, opts ...Option) *Client {
	c := &Client{handler: h, header: make(http.Header)}
	for _, o := range opts {
		o(c)
	}
	return c
}

func Send[V contract.Verb, P, B, R any](c *Client, ep contract.Endpoint[V, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return send[R](c, ep.Method(), ep.Path, params, body, opts)
}

func Get[P, B, R any](c *Client, ep contract.Endpoint[contract.Get, P, B, R], params P, opts ...client.RequestOption) (client.Response[R], error) {
	return send[R](c, contract.GET, ep.Path, params, nil, opts)
}

func Post[P, B, R any](c *Client, ep contract.Endpoint[contract.Post, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Send(c, ep, params, body, opts...)
}

func Put[P, B, R any](c *Client, ep contract.Endpoint[contract.Put, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Send(c, ep, params, body, opts...)
}

func Patch[P, B, R any](c *Client, ep contract.Endpoint[contract.Patch, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Send(c, ep, params, body, opts...)
}

func Delete[P, B, R any](c *Client, ep contract.Endpoint[contract.Delete, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Send(c, ep, params, body, opts...)
}

func AuthGet[P, B, R any](c *Client, token string, ep contract.Endpoint[contract.Get, P, B, R], params P, opts ...client.RequestOption) (client.Response[R], error) {
	return Get(c, ep, params, append(opts[:len(opts):len(opts)], client.WithBearer(token))...)
}

func AuthPost[P, B, R any](c *Client, token string, ep contract.Endpoint[contract.Post, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Post(c, ep, params, body, append(opts[:len(opts):len(opts)], client.WithBearer(token))...)
}

func AuthPut[P, B, R any](c *Client, token string, ep contract.Endpoint[contract.Put, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Put(c, ep, params, body, append(opts[:len(opts):len(opts)], client.WithBearer(token))...)
}

func AuthPatch[P, B, R any](c *Client, token string, ep contract.Endpoint[contract.Patch, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Patch(c, ep, params, body, append(opts[:len(opts):len(opts)], client.WithBearer(token))...)
}

func AuthDelete[P, B, R any](c *Client, token string, ep contract.Endpoint[contract.Delete, P, B, R], params P, body B, opts ...client.RequestOption) (client.Response[R], error) {
	return Delete(c, ep, params, body, append(opts[:len(opts):len(opts)], client.WithBearer(token))...)
}

// Request is the untyped entry point. A method outside the HTTP verb set
// fails with contract.ErrInvalidMethod before the handler runs.
func (c *Client) Request(method, path string, params, body any, opts ...client.RequestOption) (client.Response[json.RawMessage], error) {
	m, err := contract.ParseMethod(method)
	if err != nil {
		return client.Response[json.RawMessage]{}, err
	}
	return send[json.RawMessage](c, m, path, params, body, opts)
}

func send[R any](c *Client, method contract.Method, path string, params, body any, opts []client.RequestOption) (client.Response[R], error) {
	p, err := client.Prepare(method, path, params, body, c.registry, opts...)
	if err != nil {
		return client.Response[R]{}, err
	}
	rec, err := c.simulate(p)
	if err != nil {
		return client.Response[R]{}, err
	}
	resp, err := client.Decode[R](rec.Code, rec.Header(), rec.Body.Bytes())
	if err != nil {
		return resp, err
	}
	return resp, p.CheckStatus(rec.Code)
}

type outcome struct {
	panicked bool
	value    any
}

func (c *Client) simulate(p *client.Prepared) (*httptest.ResponseRecorder, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, string(p.Method), "http://contractkit.test"+p.Target, bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("clienttest: build request: %w", err)
	}
	req.RequestURI = p.Target
	req.RemoteAddr = "192.0.2.1:1234"
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range p.Header {
		req.Header[k] = append([]string(nil), vs...)
	}

	rec := httptest.NewRecorder()
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if v := recover(); v != nil {
				out = outcome{panicked: true, value: v}
			}
			done <- out
		}()
		c.handler.ServeHTTP(rec, req)
	}()

	var timeout <-chan time.Time
	if p.Timeout > 0 {
		t := time.NewTimer(p.Timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case out := <-done:
		if out.panicked {
			return nil, &PanicError{Value: out.value}
		}
		return rec, nil
	case <-timeout:
		return nil, fmt.Errorf("%w after %s: %s %s", ErrTimeout, p.Timeout, p.Method, p.Target)
	}
}
