package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// unsupportedGlobChars are doublestar metacharacters this policy
// language does not expose; only `*` and `**` are supported (§4.1).
const unsupportedGlobChars = "?[]{}"

// ValidateGlob rejects any storage URI pattern using metacharacters
// beyond `*`/`**`.
func ValidateGlob(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidGlob, uri, err)
	}
	if strings.ContainsAny(u.Host, unsupportedGlobChars) || strings.ContainsAny(u.Path, unsupportedGlobChars) {
		return fmt.Errorf("%w: %s: unsupported glob metacharacter", ErrInvalidGlob, uri)
	}
	return nil
}

// MatchStorageURI reports whether candidate (a concrete filesystem URI,
// e.g. "fs:///data/logs/out.txt") is covered by pattern (a storage rule
// URI, possibly containing `*`/`**`). Both are anchored to scheme and
// authority; only the path is glob-matched.
func MatchStorageURI(pattern, candidate string) (bool, error) {
	pu, err := url.Parse(pattern)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidGlob, pattern, err)
	}
	cu, err := url.Parse(candidate)
	if err != nil {
		return false, fmt.Errorf("parse candidate uri %q: %w", candidate, err)
	}

	if !strings.EqualFold(pu.Scheme, cu.Scheme) || pu.Host != cu.Host {
		return false, nil
	}

	patPath := strings.TrimPrefix(pu.Path, "/")
	candPath := strings.TrimPrefix(cu.Path, "/")

	return doublestar.Match(patPath, candPath)
}

// globsOverlap reports whether two storage glob patterns (scheme,
// authority, and path pattern) could ever match the same concrete URI.
// Used to detect contradictory/duplicate rules and partial-overlap
// revokes. Paths are compared segment by segment: identical patterns
// overlap; a `**` segment on either side at a compared position makes
// them overlap; a `*` segment matches any one segment. Otherwise they
// overlap only if every compared segment matches and both have the
// same number of segments, so "/data" and "/data/x" do not overlap.
func globsOverlap(a, b string) (bool, error) {
	au, err := url.Parse(a)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidGlob, a, err)
	}
	bu, err := url.Parse(b)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidGlob, b, err)
	}
	if !strings.EqualFold(au.Scheme, bu.Scheme) || au.Host != bu.Host {
		return false, nil
	}
	if a == b {
		return true, nil
	}

	aSegs := strings.Split(strings.Trim(au.Path, "/"), "/")
	bSegs := strings.Split(strings.Trim(bu.Path, "/"), "/")

	for i := 0; i < len(aSegs) && i < len(bSegs); i++ {
		as, bs := aSegs[i], bSegs[i]
		if as == "**" || bs == "**" {
			return true, nil
		}
		if as == bs {
			continue
		}
		if as == "*" || bs == "*" {
			continue
		}
		return false, nil
	}
	return len(aSegs) == len(bSegs), nil
}
