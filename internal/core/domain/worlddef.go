package domain

// WorldDefinition is the static description a World is built from.
type WorldDefinition struct {
	Networks []NetworkDefinition `yaml:"networks" validate:"required,min=1,dive"`
	// Labs are extra networks added for a difficulty setting.
	Labs map[string]NetworkDefinition `yaml:"labs" validate:"dive"`
}

// NetworkDefinition describes one network and its hosts.
type NetworkDefinition struct {
	ID         string           `yaml:"id" validate:"required"`
	Metadata   NetworkMetadata  `yaml:"metadata"`
	Discovered bool             `yaml:"discovered"`
	Security   SecurityProfile  `yaml:"security"`
	Access     AccessDefinition `yaml:"access"`

	Hosts    []HostDefinition    `yaml:"hosts" validate:"dive"`
	Gateways []GatewayDefinition `yaml:"gateways" validate:"dive"`
}

// AccessDefinition is the declarative form of an AccessProfile.
type AccessDefinition struct {
	Type AccessType     `yaml:"type" validate:"omitempty,oneof=Public VPN DirectConnection Compromised Invitation"`
	VPN  *VPNDefinition `yaml:"vpn"`
	// Requires lists gateway hostnames that must be root-owned.
	Requires []string `yaml:"requires"`
}

// VPNDefinition is the VPN account that opens a network.
type VPNDefinition struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Server   string `yaml:"server" validate:"required"`
	Protocol string `yaml:"protocol"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// GatewayDefinition is an edge to another network through a host.
type GatewayDefinition struct {
	Type   GatewayType `yaml:"type" validate:"required"`
	Target string      `yaml:"target" validate:"required"`
	Host   string      `yaml:"host" validate:"required"`
}

// HostDefinition is a HostSpec plus the content placed on the host.
type HostDefinition struct {
	HostSpec `yaml:",inline"`

	// Software names catalog templates installed on top of the device profile.
	Software []string `yaml:"software"`

	// Vulnerabilities pins CVEs onto installed software, keyed by software name.
	Vulnerabilities map[string]string `yaml:"vulnerabilities"`

	// Accounts maps user names to plain passwords; they are hashed on build.
	Accounts map[string]string `yaml:"accounts"`

	// Files are written verbatim after placeholder expansion.
	Files map[string]string `yaml:"files"`

	Leaks []LeakDefinition `yaml:"leaks" validate:"dive"`
}

// LeakDefinition plants the traces of another network's credentials.
type LeakDefinition struct {
	// Network whose VPN account is leaked.
	Network string `yaml:"network" validate:"required"`

	// SSHKeys lists user@host targets that get a key pair authorized.
	SSHKeys []string  `yaml:"ssh_keys"`
	Web     []WebLeak `yaml:"web" validate:"dive"`
}

type WebLeak struct {
	URL      string `yaml:"url" validate:"required,url"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
}
