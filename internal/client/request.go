package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/shape"
)

// RequestIDHeader is set on every request that does not already carry one.
const RequestIDHeader = "X-Request-Id"

// RequestConfig collects per-call options.
type RequestConfig struct {
	Header         http.Header
	Timeout        time.Duration
	ExpectedStatus int
}

// RequestOption configures a single call.
type RequestOption func(*RequestConfig)

// WithHeader sets one request header, replacing defaults of the same name.
func WithHeader(key, value string) RequestOption {
	return func(c *RequestConfig) { c.Header.Set(key, value) }
}

// WithHeaders sets several request headers.
func WithHeaders(h map[string]string) RequestOption {
	return func(c *RequestConfig) {
		for k, v := range h {
			c.Header.Set(k, v)
		}
	}
}

// WithTimeout bounds the call. Zero means no per-call limit.
func WithTimeout(d time.Duration) RequestOption {
	return func(c *RequestConfig) { c.Timeout = d }
}

// WithExpectedStatus makes the call return a *StatusError when the
// response status differs from status.
func WithExpectedStatus(status int) RequestOption {
	return func(c *RequestConfig) { c.ExpectedStatus = status }
}

// WithBearer adds an Authorization: Bearer header.
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Prepared is a request resolved against its path template: placeholders
// substituted, leftover params moved to the query, body encoded.
type Prepared struct {
	Method   contract.Method
	Template string
	// Target is the concrete path plus query string.
	Target string
	Body   []byte
	RequestConfig
}

// Prepare resolves a call. When registry is non-nil the request is checked
// against it first and a *contract.Violation is returned on mismatch.
func Prepare(method contract.Method, template string, params, body any, registry *contract.Map, opts ...RequestOption) (*Prepared, error) {
	if !contract.IsMethod(string(method)) {
		return nil, fmt.Errorf("%w: %q", contract.ErrInvalidMethod, method)
	}
	cfg := RequestConfig{Header: make(http.Header)}
	for _, o := range opts {
		o(&cfg)
	}
	if isAbsent(params) {
		params = nil
	}
	if isAbsent(body) {
		body = nil
	}
	if registry != nil {
		if err := registry.Validate(template, method, params, body); err != nil {
			return nil, err
		}
	}

	values, err := paramValues(params)
	if err != nil {
		return nil, err
	}
	target := contract.Substitute(template, values)
	placeholders := contract.ParamNames(template)
	query := make(url.Values)
	for k, v := range values {
		if !slices.Contains(placeholders, k) {
			addQuery(query, k, v)
		}
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	p := &Prepared{Method: method, Template: template, Target: target, RequestConfig: cfg}
	if body != nil {
		if p.Body, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		if p.Header.Get("Content-Type") == "" {
			p.Header.Set("Content-Type", "application/json")
		}
	}
	if p.Header.Get("Accept") == "" {
		p.Header.Set("Accept", "application/json")
	}
	if p.Header.Get(RequestIDHeader) == "" {
		p.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return p, nil
}

// CheckStatus returns a *StatusError when an expected status was set and
// got differs from it.
func (p *Prepared) CheckStatus(got int) error {
	if p.ExpectedStatus == 0 || p.ExpectedStatus == got {
		return nil
	}
	return &StatusError{Method: p.Method, Path: p.Target, Want: p.ExpectedStatus, Got: got}
}

func isAbsent(v any) bool {
	switch v.(type) {
	case nil, contract.None, *contract.None, contract.Void:
		return true
	}
	return false
}

// paramValues returns params in JSON form keyed by property name.
func paramValues(params any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}
	jv, err := shape.JSONValue(params)
	if err != nil {
		return nil, fmt.Errorf("client: encode params: %w", err)
	}
	switch m := jv.(type) {
	case map[string]any:
		return m, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("client: params must encode to a JSON object, got %T", params)
}

func addQuery(q url.Values, key string, v any) {
	switch x := v.(type) {
	case nil:
	case []any:
		for _, item := range x {
			addQuery(q, key, item)
		}
	case map[string]any:
		b, _ := json.Marshal(x)
		q.Add(key, string(b))
	default:
		q.Add(key, contract.FormatValue(x))
	}
}
