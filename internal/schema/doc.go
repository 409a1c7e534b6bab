package schema

import "github.com/wassette/wassette/internal/wasmtypes"

// Describe returns the documentation string to surface for a tool,
// falling back to an empty string when the component carries none.
// Absence of WIT documentation is never a failure: a tool with no doc
// comment is still a perfectly usable tool.
func Describe(fn *wasmtypes.Function) string {
	return fn.Doc
}
