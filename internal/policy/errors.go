package policy

import "errors"

// ParseError variants, per spec §4.1.
var (
	ErrSchemaMismatch = errors.New("policy: schema mismatch")
	ErrUnknownVersion = errors.New("policy: unknown version")
	ErrInvalidCIDR    = errors.New("policy: invalid CIDR")
	ErrInvalidGlob    = errors.New("policy: invalid glob pattern")
	ErrDuplicateRule  = errors.New("policy: duplicate rule")

	// ErrInvalidQuantity is returned when a resources.limits value does
	// not parse as a Kubernetes-style quantity.
	ErrInvalidQuantity = errors.New("policy: invalid resource quantity")

	// ErrPartialOverlapRevoke is returned by a revoke operation whose
	// target only partially overlaps the granted allow-list (§9 open
	// question: reject rather than silently reshape).
	ErrPartialOverlapRevoke = errors.New("policy: revoke target partially overlaps granted rule")
)
