package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a policy document from YAML text.
func Parse(text []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(text, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseFile reads and parses a policy document from path.
func ParseFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	return Parse(data)
}

// Serialize renders a validated policy back to YAML with deterministic
// key order (struct field order, as emitted by yaml.v3).
func Serialize(p *Policy) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serialize policy: %w", err)
	}
	return out, nil
}
