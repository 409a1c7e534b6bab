package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// cacheEntry is the on-disk metadata file written alongside each cached
// artifact, per spec §6's cache layout: {uri, digest, fetchedAt}.
type cacheEntry struct {
	URI       string    `json:"uri"`
	Digest    string    `json:"digest"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache is a content-addressed, write-once-per-key store of fetched
// component artifacts. Keys are the canonicalized source URI; entries
// live under root/<sha256(uri)>/.
type Cache struct {
	root string
}

func NewCache(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root %s: %w", root, err)
	}
	return &Cache{root: root}, nil
}

// canonicalizeURI lowercases the scheme and host and drops the default
// port of http (80) and https (443) URIs. The path, query, and the
// repository/tag part of oci:// references are kept as given.
func canonicalizeURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(host, ":80")) || (u.Scheme == "https" && strings.HasSuffix(host, ":443")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	u.Host = host
	return u.String()
}

func keyFor(uri string) string {
	sum := sha256.Sum256([]byte(canonicalizeURI(uri)))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) dirFor(uri string) string {
	return filepath.Join(c.root, keyFor(uri))
}

// Lookup returns the cached artifact path and digest for uri if present
// and the artifact's SHA-256 still equals the recorded digest; an entry
// whose bytes no longer match is reported as a miss.
func (c *Cache) Lookup(uri string) (path string, digest string, ok bool) {
	dir := c.dirFor(uri)
	meta, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return "", "", false
	}
	var entry cacheEntry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return "", "", false
	}
	artifact := filepath.Join(dir, "artifact.wasm")
	data, err := os.ReadFile(artifact)
	if err != nil {
		return "", "", false
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != entry.Digest {
		return "", "", false
	}
	return artifact, entry.Digest, true
}

// Store writes data under uri's cache entry and records its digest.
func (c *Cache) Store(uri string, data []byte, digest string) (string, error) {
	dir := c.dirFor(uri)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache entry for %s: %w", uri, err)
	}

	artifact := filepath.Join(dir, "artifact.wasm")
	if err := os.WriteFile(artifact, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact for %s: %w", uri, err)
	}

	entry := cacheEntry{URI: uri, Digest: digest, FetchedAt: time.Now()}
	meta, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal cache metadata for %s: %w", uri, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), meta, 0o644); err != nil {
		return "", fmt.Errorf("write cache metadata for %s: %w", uri, err)
	}

	return artifact, nil
}

// Invalidate removes the cache entry for uri, if any.
func (c *Cache) Invalidate(uri string) error {
	if err := os.RemoveAll(c.dirFor(uri)); err != nil {
		return fmt.Errorf("invalidate cache entry for %s: %w", uri, err)
	}
	return nil
}
