package policy

import (
	"fmt"
	"net"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Validate checks all structural constraints from spec §3:
//
//  1. the version string is recognized
//  2. no duplicate storage URI with contradictory access sets
//  3. every CIDR is well-formed
//  4. every resource quantity parses
//  5. glob patterns contain no unsupported metacharacters
func Validate(p *Policy) error {
	if p == nil {
		return fmt.Errorf("%w: nil policy", ErrSchemaMismatch)
	}
	if !SupportedVersions[p.Version] {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, p.Version)
	}

	if s := p.Permissions.Storage; s != nil {
		if err := validateStorage(s.Allow); err != nil {
			return err
		}
	}

	if n := p.Permissions.Network; n != nil {
		for _, rule := range n.Allow {
			if rule.Host == "" && rule.CIDR == "" {
				return fmt.Errorf("%w: network rule must set host or cidr", ErrSchemaMismatch)
			}
			if rule.CIDR != "" {
				if _, _, err := net.ParseCIDR(rule.CIDR); err != nil {
					return fmt.Errorf("%w: %s: %v", ErrInvalidCIDR, rule.CIDR, err)
				}
			}
		}
	}

	if e := p.Permissions.Environment; e != nil {
		for _, rule := range e.Allow {
			if rule.Key == "" {
				return fmt.Errorf("%w: environment rule key must not be empty", ErrSchemaMismatch)
			}
		}
	}

	if r := p.Permissions.Resources; r != nil && r.Limits != nil {
		if err := validateQuantity(r.Limits.CPU); err != nil {
			return err
		}
		if err := validateQuantity(r.Limits.Memory); err != nil {
			return err
		}
	}

	return nil
}

func validateQuantity(q string) error {
	if q == "" {
		return nil
	}
	if _, err := resource.ParseQuantity(q); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidQuantity, q, err)
	}
	return nil
}

func validateStorage(rules []StorageRule) error {
	for _, rule := range rules {
		if err := ValidateGlob(rule.URI); err != nil {
			return err
		}
		for _, a := range rule.Access {
			if a != AccessRead && a != AccessWrite {
				return fmt.Errorf("%w: unknown access %q", ErrSchemaMismatch, a)
			}
		}
	}

	// Duplicate / contradictory detection: two rules with the same URI
	// must agree on their access sets. Rules with different but
	// overlapping patterns are not checked against each other.
	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			overlap, err := globsOverlap(rules[i].URI, rules[j].URI)
			if err != nil {
				return err
			}
			if !overlap {
				continue
			}
			if rules[i].URI == rules[j].URI && !sameAccess(rules[i].Access, rules[j].Access) {
				return fmt.Errorf("%w: %s", ErrDuplicateRule, rules[i].URI)
			}
		}
	}

	return nil
}

func sameAccess(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, x := range a {
		seen[x] = true
	}
	for _, x := range b {
		if !seen[x] {
			return false
		}
	}
	return true
}
