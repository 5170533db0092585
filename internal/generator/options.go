// Package generator derives a contract.Map from an OpenAPI document.
//
// Every schema is flattened into a structural shape.Type: references are
// inlined, allOf branches merged and recursive schemas cut off with a bare
// reference name. Generation is all-or-nothing; any unresolvable reference
// fails the whole run.
package generator

// Default output locations, relative to the working directory.
const (
	DefaultTSOutputPath = "internal/contracts/api.contract.ts"
	DefaultGoOutputPath = "internal/contracts/api"
)

// Options are recorded in the header of emitted contract sources.
type Options struct {
	// InlineDTOs inlines referenced schemas as anonymous object types.
	// Inlining is the only supported mode; the flag is kept for the header.
	InlineDTOs bool
	// GenerateUtilityTypes emits a pointer to the path utilities instead of
	// re-declaring them next to the contract.
	GenerateUtilityTypes bool
	// GenerateSchemas emits a runtime schema placeholder object.
	GenerateSchemas bool
	// OutputPath is where the contract source is written.
	OutputPath string
}

// DefaultOptions returns the generator defaults.
func DefaultOptions() Options {
	return Options{
		InlineDTOs:           true,
		GenerateUtilityTypes: true,
		GenerateSchemas:      false,
		OutputPath:           DefaultTSOutputPath,
	}
}
