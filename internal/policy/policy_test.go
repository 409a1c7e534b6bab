package policy

import (
	"errors"
	"testing"
)

func validPolicyYAML() []byte {
	return []byte(`
version: "1.0"
description: test policy
permissions:
  storage:
    allow:
      - uri: "fs:///data/**"
        access: ["read", "write"]
  network:
    allow:
      - host: "api.example.com"
      - cidr: "10.0.0.0/8"
  environment:
    allow:
      - key: "PATH"
  resources:
    limits:
      cpu: "500m"
      memory: "512Mi"
`)
}

func TestParseValid(t *testing.T) {
	p, err := Parse(validPolicyYAML())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Version != "1.0" {
		t.Fatalf("version = %q, want 1.0", p.Version)
	}
	if len(p.Permissions.Storage.Allow) != 1 {
		t.Fatalf("storage allow length = %d, want 1", len(p.Permissions.Storage.Allow))
	}
}

func TestParseUnknownVersion(t *testing.T) {
	_, err := Parse([]byte(`version: "9.9"`))
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("err = %v, want ErrUnknownVersion", err)
	}
}

func TestParseInvalidCIDR(t *testing.T) {
	_, err := Parse([]byte(`
version: "1.0"
permissions:
  network:
    allow:
      - cidr: "not-a-cidr"
`))
	if !errors.Is(err, ErrInvalidCIDR) {
		t.Fatalf("err = %v, want ErrInvalidCIDR", err)
	}
}

func TestParseInvalidQuantity(t *testing.T) {
	_, err := Parse([]byte(`
version: "1.0"
permissions:
  resources:
    limits:
      cpu: "not-a-quantity"
`))
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
}

func TestParseInvalidGlob(t *testing.T) {
	_, err := Parse([]byte(`
version: "1.0"
permissions:
  storage:
    allow:
      - uri: "fs:///data/[abc]"
        access: ["read"]
`))
	if !errors.Is(err, ErrInvalidGlob) {
		t.Fatalf("err = %v, want ErrInvalidGlob", err)
	}
}

func TestParseDuplicateRule(t *testing.T) {
	_, err := Parse([]byte(`
version: "1.0"
permissions:
  storage:
    allow:
      - uri: "fs:///data/x"
        access: ["read"]
      - uri: "fs:///data/x"
        access: ["write"]
`))
	if !errors.Is(err, ErrDuplicateRule) {
		t.Fatalf("err = %v, want ErrDuplicateRule", err)
	}
}

// TestRoundTrip verifies invariant 1 from spec §8: parse(serialize(p)) ≡ p.
func TestRoundTrip(t *testing.T) {
	p, err := Parse(validPolicyYAML())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	p2, err := Parse(text)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}

	text2, err := Serialize(p2)
	if err != nil {
		t.Fatalf("re-Serialize: %v", err)
	}

	if string(text) != string(text2) {
		t.Fatalf("serialize not stable:\n%s\nvs\n%s", text, text2)
	}
}

func TestMatchStorageURI(t *testing.T) {
	cases := []struct {
		pattern, candidate string
		want               bool
	}{
		{"fs:///data/**", "fs:///data/a/b/c.txt", true},
		{"fs:///data/*", "fs:///data/a/b/c.txt", false},
		{"fs:///data/*", "fs:///data/c.txt", true},
		{"fs:///data/**", "fs:///other/c.txt", false},
	}
	for _, c := range cases {
		got, err := MatchStorageURI(c.pattern, c.candidate)
		if err != nil {
			t.Fatalf("MatchStorageURI(%q, %q): %v", c.pattern, c.candidate, err)
		}
		if got != c.want {
			t.Errorf("MatchStorageURI(%q, %q) = %v, want %v", c.pattern, c.candidate, got, c.want)
		}
	}
}

func TestRevokePartialOverlapRejected(t *testing.T) {
	p := Default()
	p = GrantStorage(p, "fs:///data/**", []string{AccessRead})

	if _, err := RevokeStorage(p, "fs:///data/sub/*"); !errors.Is(err, ErrPartialOverlapRevoke) {
		t.Fatalf("err = %v, want ErrPartialOverlapRevoke", err)
	}

	// Exact match revokes cleanly.
	p2, err := RevokeStorage(p, "fs:///data/**")
	if err != nil {
		t.Fatalf("RevokeStorage exact: %v", err)
	}
	if len(p2.Permissions.Storage.Allow) != 0 {
		t.Fatalf("expected empty allow-list after revoke, got %v", p2.Permissions.Storage.Allow)
	}
}
