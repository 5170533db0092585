package spec

import (
	"github.com/mark3labs/contractkit/internal/contract"
)

// Document is a loaded API description normalized to the OpenAPI 3 layout.
// Raw holds the document tree as generic JSON values: map[string]any,
// []any, string, float64, bool and nil.
type Document struct {
	// SourceVersion is 2 for Swagger input and 3 for OpenAPI input.
	SourceVersion int
	OpenAPI       string
	Title         string
	Location      string
	Raw           map[string]any
}

// Route is one (path, method) operation extracted from a document. It is
// transient: the generator consumes routes and discards them.
type Route struct {
	Path        string
	Method      contract.Method
	OperationID string
	Summary     string
	Tags        []string
	// Pointer locates the operation, e.g. "#/paths/~1pets/get".
	Pointer     string
	Parameters  []Parameter
	RequestBody any
	Responses   map[string]any
}

// Parameter is a dereferenced operation parameter.
type Parameter struct {
	Name     string
	In       string
	Required bool
	Schema   any
}

const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)
