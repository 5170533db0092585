// Package client is the production HTTP client for contract endpoints.
//
// Calls are generic over contract.Endpoint, so the path, verb, params, body
// and response types of a call all come from the generated contract. Every
// call performs exactly one round trip and never retries. Transport failures
// are reported as a Failure with status 0 rather than as an error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/contractkit/internal/contract"
)

// Client sends contract requests to one base URL.
type Client struct {
	base     string
	http     *http.Client
	registry *contract.Map
	header   http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithContract validates every request against m before sending it.
func WithContract(m *contract.Map) Option {
	return func(c *Client) { c.registry = m }
}

// WithDefaultHeader sets a header on every request. Per-call headers win.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// New returns a client for baseURL, which must be an absolute http(s) URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: base URL %q must be absolute http(s)", baseURL)
	}
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   http.DefaultClient,
		header: make(http.Header),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Send performs a call on any endpoint. The verb-specific helpers below
// are thin wrappers around it.
func Send[V contract.Verb, P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[V, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return send[R](ctx, c, ep.Method(), ep.Path, params, body, opts)
}

func Get[P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[contract.Get, P, B, R], params P, opts ...RequestOption) (Response[R], error) {
	return send[R](ctx, c, contract.GET, ep.Path, params, nil, opts)
}

func Post[P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[contract.Post, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Send(ctx, c, ep, params, body, opts...)
}

func Put[P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[contract.Put, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Send(ctx, c, ep, params, body, opts...)
}

func Patch[P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[contract.Patch, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Send(ctx, c, ep, params, body, opts...)
}

func Delete[P, B, R any](ctx context.Context, c *Client, ep contract.Endpoint[contract.Delete, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Send(ctx, c, ep, params, body, opts...)
}

// AuthGet is Get with an Authorization: Bearer token.
func AuthGet[P, B, R any](ctx context.Context, c *Client, token string, ep contract.Endpoint[contract.Get, P, B, R], params P, opts ...RequestOption) (Response[R], error) {
	return Get(ctx, c, ep, params, append(opts[:len(opts):len(opts)], WithBearer(token))...)
}

func AuthPost[P, B, R any](ctx context.Context, c *Client, token string, ep contract.Endpoint[contract.Post, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Post(ctx, c, ep, params, body, append(opts[:len(opts):len(opts)], WithBearer(token))...)
}

func AuthPut[P, B, R any](ctx context.Context, c *Client, token string, ep contract.Endpoint[contract.Put, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Put(ctx, c, ep, params, body, append(opts[:len(opts):len(opts)], WithBearer(token))...)
}

func AuthPatch[P, B, R any](ctx context.Context, c *Client, token string, ep contract.Endpoint[contract.Patch, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Patch(ctx, c, ep, params, body, append(opts[:len(opts):len(opts)], WithBearer(token))...)
}

func AuthDelete[P, B, R any](ctx context.Context, c *Client, token string, ep contract.Endpoint[contract.Delete, P, B, R], params P, body B, opts ...RequestOption) (Response[R], error) {
	return Delete(ctx, c, ep, params, body, append(opts[:len(opts):len(opts)], WithBearer(token))...)
}

// Request is the untyped entry point for a method chosen at run time.
// A method outside the HTTP verb set fails with contract.ErrInvalidMethod
// before anything is sent.
func (c *Client) Request(ctx context.Context, method, path string, params, body any, opts ...RequestOption) (Response[json.RawMessage], error) {
	m, err := contract.ParseMethod(method)
	if err != nil {
		return Response[json.RawMessage]{}, err
	}
	return send[json.RawMessage](ctx, c, m, path, params, body, opts)
}

func send[R any](ctx context.Context, c *Client, method contract.Method, path string, params, body any, opts []RequestOption) (Response[R], error) {
	p, err := Prepare(method, path, params, body, c.registry, opts...)
	if err != nil {
		return Response[R]{}, err
	}
	status, header, raw, err := c.roundTrip(ctx, p)
	if err != nil {
		return Failed[R](Failure{Err: err}), p.CheckStatus(0)
	}
	resp, err := Decode[R](status, header, raw)
	if err != nil {
		return resp, err
	}
	return resp, p.CheckStatus(status)
}

func (c *Client) roundTrip(ctx context.Context, p *Prepared) (int, http.Header, []byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	var body io.Reader
	if p.Body != nil {
		body = bytes.NewReader(p.Body)
	}
	req, err := http.NewRequestWithContext(ctx, string(p.Method), c.base+p.Target, body)
	if err != nil {
		return 0, nil, nil, err
	}
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range p.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, raw, nil
}
