package contract

import "fmt"

// None is the Go type of an absent params or body slot.
type None struct{}

// Void is the Go type of a response that carries no body.
type Void struct{}

// Endpoint is a typed handle on one contract entry. V fixes the verb, P the
// params, B the body and R the response payload type.
type Endpoint[V Verb, P, B, R any] struct {
	Path string
}

// Method returns the endpoint's verb.
func (e Endpoint[V, P, B, R]) Method() Method {
	var v V
	return v.Method()
}

func (e Endpoint[V, P, B, R]) String() string {
	return string(e.Method()) + " " + e.Path
}

// Module is implemented by zero-size marker types naming a route prefix.
type Module interface {
	Prefix() string
}

// Routed is an endpoint bound to module M. Scoped clients only accept
// endpoints routed to their own module.
type Routed[M Module, V Verb, P, B, R any] struct {
	Endpoint[V, P, B, R]
}

// Route binds ep to module M. It panics if ep's path does not lie beneath
// M's prefix.
func Route[M Module, V Verb, P, B, R any](ep Endpoint[V, P, B, R]) Routed[M, V, P, B, R] {
	var m M
	if !UnderPrefix(ep.Path, m.Prefix()) {
		panic(fmt.Sprintf("contract: %s is outside module prefix %q", ep, m.Prefix()))
	}
	return Routed[M, V, P, B, R]{Endpoint: ep}
}
