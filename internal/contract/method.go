package contract

import (
	"errors"
	"fmt"
	"strings"
)

// Method is an HTTP verb from the closed set a contract may declare.
type Method string

const (
	GET     Method = "GET"
	POST    Method = "POST"
	PUT     Method = "PUT"
	PATCH   Method = "PATCH"
	DELETE  Method = "DELETE"
	HEAD    Method = "HEAD"
	OPTIONS Method = "OPTIONS"
	TRACE   Method = "TRACE"
)

// ErrInvalidMethod is returned for method tokens outside the verb set.
var ErrInvalidMethod = errors.New("contract: invalid HTTP method")

var methods = map[string]Method{
	"GET": GET, "POST": POST, "PUT": PUT, "PATCH": PATCH, "DELETE": DELETE,
	"HEAD": HEAD, "OPTIONS": OPTIONS, "TRACE": TRACE,
}

// ParseMethod maps a case-insensitive verb token onto a Method.
func ParseMethod(s string) (Method, error) {
	if m, ok := methods[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// IsMethod reports whether s names a verb, case-insensitively. Document keys
// such as "parameters" or "summary" are not methods.
func IsMethod(s string) bool {
	_, err := ParseMethod(s)
	return err == nil
}

// Get, Post, Put, Patch, Delete, Head, Options and Trace are phantom verb
// types. They carry an endpoint's method in its Go type so that a GET-only
// call site cannot be handed a POST endpoint.
type (
	Get     struct{}
	Post    struct{}
	Put     struct{}
	Patch   struct{}
	Delete  struct{}
	Head    struct{}
	Options struct{}
	Trace   struct{}
)

func (Get) Method() Method     { return GET }
func (Post) Method() Method    { return POST }
func (Put) Method() Method     { return PUT }
func (Patch) Method() Method   { return PATCH }
func (Delete) Method() Method  { return DELETE }
func (Head) Method() Method    { return HEAD }
func (Options) Method() Method { return OPTIONS }
func (Trace) Method() Method   { return TRACE }

// Verb constrains a type parameter to the phantom verb types.
type Verb interface {
	Get | Post | Put | Patch | Delete | Head | Options | Trace
	Method() Method
}
