package policy

import "fmt"

// Clone returns a deep-enough copy of p suitable for trial mutation;
// the caller mutates the clone and only swaps it in on success.
func Clone(p *Policy) *Policy {
	c := *p
	if p.Permissions.Storage != nil {
		s := *p.Permissions.Storage
		s.Allow = append([]StorageRule(nil), p.Permissions.Storage.Allow...)
		c.Permissions.Storage = &s
	}
	if p.Permissions.Network != nil {
		n := *p.Permissions.Network
		n.Allow = append([]NetworkRule(nil), p.Permissions.Network.Allow...)
		c.Permissions.Network = &n
	}
	if p.Permissions.Environment != nil {
		e := *p.Permissions.Environment
		e.Allow = append([]EnvironmentRule(nil), p.Permissions.Environment.Allow...)
		c.Permissions.Environment = &e
	}
	if p.Permissions.Resources != nil {
		r := *p.Permissions.Resources
		if p.Permissions.Resources.Limits != nil {
			l := *p.Permissions.Resources.Limits
			r.Limits = &l
		}
		c.Permissions.Resources = &r
	}
	return &c
}

// GrantStorage adds uri/access to the storage allow-list.
func GrantStorage(p *Policy, uri string, access []string) *Policy {
	c := Clone(p)
	if c.Permissions.Storage == nil {
		c.Permissions.Storage = &StoragePermission{}
	}
	c.Permissions.Storage.Allow = append(c.Permissions.Storage.Allow, StorageRule{URI: uri, Access: access})
	return c
}

// RevokeStorage removes any storage rule whose URI exactly matches uri.
// A uri that only partially overlaps an existing rule is rejected per
// §9's open-question resolution: partial-overlap revokes are an error,
// not a silent reshape.
func RevokeStorage(p *Policy, uri string) (*Policy, error) {
	c := Clone(p)
	if c.Permissions.Storage == nil {
		return c, nil
	}
	kept := c.Permissions.Storage.Allow[:0:0]
	for _, rule := range c.Permissions.Storage.Allow {
		if rule.URI == uri {
			continue
		}
		overlap, err := globsOverlap(rule.URI, uri)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, fmt.Errorf("%w: %s vs %s", ErrPartialOverlapRevoke, uri, rule.URI)
		}
		kept = append(kept, rule)
	}
	c.Permissions.Storage.Allow = kept
	return c, nil
}

// GrantNetwork adds a host entry to the network allow-list.
func GrantNetwork(p *Policy, host string) *Policy {
	c := Clone(p)
	if c.Permissions.Network == nil {
		c.Permissions.Network = &NetworkPermission{}
	}
	c.Permissions.Network.Allow = append(c.Permissions.Network.Allow, NetworkRule{Host: host})
	return c
}

// RevokeNetwork removes a host entry from the network allow-list.
func RevokeNetwork(p *Policy, host string) *Policy {
	c := Clone(p)
	if c.Permissions.Network == nil {
		return c
	}
	kept := c.Permissions.Network.Allow[:0:0]
	for _, rule := range c.Permissions.Network.Allow {
		if rule.Host != host {
			kept = append(kept, rule)
		}
	}
	c.Permissions.Network.Allow = kept
	return c
}

// GrantEnvironment adds a key pattern to the environment allow-list.
func GrantEnvironment(p *Policy, key string) *Policy {
	c := Clone(p)
	if c.Permissions.Environment == nil {
		c.Permissions.Environment = &EnvironmentPermission{}
	}
	c.Permissions.Environment.Allow = append(c.Permissions.Environment.Allow, EnvironmentRule{Key: key})
	return c
}

// RevokeEnvironment removes a key pattern from the environment allow-list.
func RevokeEnvironment(p *Policy, key string) *Policy {
	c := Clone(p)
	if c.Permissions.Environment == nil {
		return c
	}
	kept := c.Permissions.Environment.Allow[:0:0]
	for _, rule := range c.Permissions.Environment.Allow {
		if rule.Key != key {
			kept = append(kept, rule)
		}
	}
	c.Permissions.Environment.Allow = kept
	return c
}

// GrantMemory sets the memory resource limit.
func GrantMemory(p *Policy, limit string) *Policy {
	c := Clone(p)
	if c.Permissions.Resources == nil {
		c.Permissions.Resources = &ResourcesPermission{}
	}
	if c.Permissions.Resources.Limits == nil {
		c.Permissions.Resources.Limits = &Limits{}
	}
	c.Permissions.Resources.Limits.Memory = limit
	return c
}

// RevokeMemory clears the memory resource limit.
func RevokeMemory(p *Policy) *Policy {
	c := Clone(p)
	if c.Permissions.Resources != nil && c.Permissions.Resources.Limits != nil {
		c.Permissions.Resources.Limits.Memory = ""
	}
	return c
}
