package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// DeriveComponentID computes a stable identifier from a canonicalized
// source URI, per spec §3/§9: reload semantics depend on this being
// deterministic so callers never need to remember opaque ids.
func DeriveComponentID(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return shortHash(uri)
	}

	switch u.Scheme {
	case "oci":
		ref := strings.TrimPrefix(uri, "oci://")
		if idx := strings.LastIndex(ref, ":"); idx != -1 && !strings.Contains(ref[idx:], "/") {
			ref = ref[:idx]
		}
		return sanitize(path.Base(ref))
	case "file":
		base := path.Base(u.Path)
		return sanitize(strings.TrimSuffix(base, path.Ext(base)))
	default:
		base := path.Base(u.Path)
		if base != "" && base != "/" && base != "." {
			return sanitize(strings.TrimSuffix(base, path.Ext(base)))
		}
		return shortHash(uri)
	}
}

func sanitize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
