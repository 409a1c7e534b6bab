// Package wasmtypes models the subset of the WebAssembly Component
// Model's value types that wassette needs to bridge to JSON: the type
// grammar (Type) and the runtime value representation (Value).
package wasmtypes

import "fmt"

// Kind identifies a component-model type's shape.
type Kind int

const (
	Bool Kind = iota
	S8
	U8
	S16
	U16
	S32
	U32
	S64
	U64
	F32
	F64
	Char
	String
	List
	Record
	Tuple
	Variant
	Enum
	Option
	Result
	Flags
)

// Field is a named, typed member of a record or a named parameter.
type Field struct {
	Name string
	Type *Type
}

// Case is one arm of a variant. Type is nil for a payload-less case.
type Case struct {
	Name string
	Type *Type
}

// Type is a component-model type descriptor.
type Type struct {
	Kind Kind

	Elem *Type // List, Option

	Fields []Field // Record
	Items  []*Type // Tuple

	Cases []Case // Variant

	Names []string // Enum, Flags

	Ok  *Type // Result (nil means no ok payload)
	Err *Type // Result (nil means no err payload)
}

// Function describes one exported function: its named parameter tuple
// and its result type(s), plus documentation extracted from the
// artifact's WIT documentation section, if present.
type Function struct {
	Name    string
	Params  []Field
	Results []*Type
	Doc     string
}

// IntRange returns the [minimum, maximum] bounds for an integer Kind.
// ok is false for non-integer kinds.
func IntRange(k Kind) (min, max int64, ok bool) {
	switch k {
	case S8:
		return -1 << 7, 1<<7 - 1, true
	case U8:
		return 0, 1<<8 - 1, true
	case S16:
		return -1 << 15, 1<<15 - 1, true
	case U16:
		return 0, 1<<16 - 1, true
	case S32:
		return -1 << 31, 1<<31 - 1, true
	case U32:
		return 0, 1<<32 - 1, true
	case S64:
		return -1 << 63, 1<<63 - 1, true
	case U64:
		// math.MaxInt64 is the largest value representable in int64;
		// callers needing the true uint64 bound use Kind == U64 directly.
		return 0, 1<<63 - 1, true
	default:
		return 0, 0, false
	}
}

func (k Kind) String() string {
	names := [...]string{
		"bool", "s8", "u8", "s16", "u16", "s32", "u32", "s64", "u64",
		"f32", "f64", "char", "string", "list", "record", "tuple",
		"variant", "enum", "option", "result", "flags",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}
