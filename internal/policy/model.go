// Package policy parses and validates the capability policy documents
// that gate a component's access to host resources: storage, network,
// environment variables, and resource limits.
package policy

// Policy is a versioned capability document attached to a component.
type Policy struct {
	Version     string      `yaml:"version" json:"version"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Permissions Permissions `yaml:"permissions" json:"permissions"`
}

// Permissions groups the four orthogonal capability sections.
type Permissions struct {
	Storage     *StoragePermission     `yaml:"storage,omitempty" json:"storage,omitempty"`
	Network     *NetworkPermission     `yaml:"network,omitempty" json:"network,omitempty"`
	Environment *EnvironmentPermission `yaml:"environment,omitempty" json:"environment,omitempty"`
	Resources   *ResourcesPermission   `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// StoragePermission is the filesystem allow-list.
type StoragePermission struct {
	Allow []StorageRule `yaml:"allow,omitempty" json:"allow,omitempty"`
}

// StorageRule grants access to a glob-capable filesystem URI.
type StorageRule struct {
	URI    string   `yaml:"uri" json:"uri"`
	Access []string `yaml:"access" json:"access"`
}

const (
	AccessRead  = "read"
	AccessWrite = "write"
)

// NetworkPermission is the outbound-host allow-list.
type NetworkPermission struct {
	Allow []NetworkRule `yaml:"allow,omitempty" json:"allow,omitempty"`
}

// NetworkRule grants access to exactly one of a host, a host pattern,
// or a CIDR block.
type NetworkRule struct {
	Host string `yaml:"host,omitempty" json:"host,omitempty"`
	CIDR string `yaml:"cidr,omitempty" json:"cidr,omitempty"`
}

// EnvironmentPermission is the environment-variable key allow-list.
type EnvironmentPermission struct {
	Allow []EnvironmentRule `yaml:"allow,omitempty" json:"allow,omitempty"`
}

// EnvironmentRule grants access to environment keys matching Key (glob).
type EnvironmentRule struct {
	Key string `yaml:"key" json:"key"`
}

// ResourcesPermission configures resource limits and runtime tuning.
type ResourcesPermission struct {
	Limits *Limits `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// Limits holds Kubernetes-style resource quantities.
type Limits struct {
	CPU    string `yaml:"cpu,omitempty" json:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// SupportedVersions lists the policy schema versions this parser
// recognizes.
var SupportedVersions = map[string]bool{
	"1.0": true,
}

// Default returns the empty, all-deny default policy attached to a
// component that has no explicit policy.
func Default() *Policy {
	return &Policy{
		Version:     "1.0",
		Description: "default (no capabilities granted)",
	}
}
