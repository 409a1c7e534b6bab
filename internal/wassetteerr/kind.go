// Package wassetteerr classifies errors into the taxonomy kinds used to
// decide how a failure is surfaced across the MCP boundary (as a
// JSON-RPC error object, or as a tool result with isError: true).
package wassetteerr

import "errors"

// Kind is one taxonomy bucket from the error handling design.
type Kind int

const (
	Internal Kind = iota
	Parse
	Validation
	Resolve
	Compile
	Instantiate
	Invoke
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Validation:
		return "validation"
	case Resolve:
		return "resolve"
	case Compile:
		return "compile"
	case Instantiate:
		return "instantiate"
	case Invoke:
		return "invoke"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify returns the Kind attached to err, or Internal if err carries
// no classification.
func Classify(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool {
	return Classify(err) == kind
}
