package wasmtypes

// Value is the dynamic runtime representation of a component-model
// value. Concrete shapes, by Kind:
//
//	Bool            bool
//	S8..U64         int64 / uint64
//	F32, F64        float64
//	Char, String    string
//	List            []Value
//	Record          map[string]Value
//	Tuple           []Value
//	Variant         VariantValue
//	Enum            string
//	Option          the payload's Value (nil == none)
//	Result          ResultValue
//	Flags           []string
type Value any

// VariantValue is the runtime shape of a `variant` value: the selected
// case name plus its optional payload.
type VariantValue struct {
	Case string
	Val  Value // nil if the case carries no payload
}

// ResultValue is the runtime shape of a `result<T, E>` value.
type ResultValue struct {
	OK  bool
	Val Value // nil if the arm carries no payload
}
