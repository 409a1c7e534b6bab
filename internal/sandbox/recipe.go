// Package sandbox turns a validated policy into a wazero module
// configuration: pre-opened directories, an environment filter, and
// resource limits, all derived once per component and replayed fresh
// at every call.
package sandbox

import (
	"fmt"
	"net/url"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/wassette/wassette/internal/policy"
)

// DirMount is a single filesystem pre-opening.
type DirMount struct {
	HostPath  string
	GuestPath string
	ReadOnly  bool
}

// Recipe is pure data derived from a policy: everything the module
// config builder needs, with no remaining dependency on the policy
// package's YAML shape.
type Recipe struct {
	Mounts       []DirMount
	AllowedHosts []string
	AllowedCIDRs []string
	EnvPatterns  []string
	MemoryLimit  uint64 // bytes, 0 means unlimited
	CPUMillis    int64  // 0 means unlimited
}

// Build derives a Recipe from a validated policy.
func Build(p *policy.Policy) (*Recipe, error) {
	r := &Recipe{}

	if s := p.Permissions.Storage; s != nil {
		for _, rule := range s.Allow {
			mount, err := mountFor(rule)
			if err != nil {
				return nil, err
			}
			r.Mounts = append(r.Mounts, mount)
		}
	}

	if n := p.Permissions.Network; n != nil {
		for _, rule := range n.Allow {
			if rule.Host != "" {
				r.AllowedHosts = append(r.AllowedHosts, rule.Host)
			}
			if rule.CIDR != "" {
				r.AllowedCIDRs = append(r.AllowedCIDRs, rule.CIDR)
			}
		}
	}

	if e := p.Permissions.Environment; e != nil {
		for _, rule := range e.Allow {
			r.EnvPatterns = append(r.EnvPatterns, rule.Key)
		}
	}

	if res := p.Permissions.Resources; res != nil && res.Limits != nil {
		if res.Limits.Memory != "" {
			q, err := resource.ParseQuantity(res.Limits.Memory)
			if err != nil {
				return nil, fmt.Errorf("sandbox: memory limit %q: %w", res.Limits.Memory, err)
			}
			r.MemoryLimit = uint64(q.Value())
		}
		if res.Limits.CPU != "" {
			q, err := resource.ParseQuantity(res.Limits.CPU)
			if err != nil {
				return nil, fmt.Errorf("sandbox: cpu limit %q: %w", res.Limits.CPU, err)
			}
			r.CPUMillis = q.MilliValue()
		}
	}

	return r, nil
}

// mountFor derives a host/guest directory pair from a storage rule's
// URI. Only fs:// URIs are pre-opened; the mount point is the deepest
// directory that contains no glob metacharacters.
func mountFor(rule policy.StorageRule) (DirMount, error) {
	u, err := url.Parse(rule.URI)
	if err != nil {
		return DirMount{}, fmt.Errorf("sandbox: storage uri %q: %w", rule.URI, err)
	}
	if u.Scheme != "fs" {
		return DirMount{}, fmt.Errorf("sandbox: unsupported storage scheme %q", u.Scheme)
	}

	dir := staticPrefix(u.Path)
	readOnly := true
	for _, a := range rule.Access {
		if a == policy.AccessWrite {
			readOnly = false
		}
	}

	return DirMount{HostPath: dir, GuestPath: dir, ReadOnly: readOnly}, nil
}

// staticPrefix trims a glob pattern down to its longest static
// directory prefix, e.g. "/data/**" -> "/data", "/data/*.txt" -> "/data".
func staticPrefix(path string) string {
	segments := strings.Split(path, "/")
	var kept []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[]{}") {
			break
		}
		kept = append(kept, seg)
	}
	joined := strings.Join(kept, "/")
	if joined == "" {
		return "/"
	}
	return joined
}
