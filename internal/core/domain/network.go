package domain

import (
	"fmt"
	"slices"
	"strings"
)

// NetworkType classifies who operates a network.
type NetworkType string

const (
	NetworkISP         NetworkType = "ISP"
	NetworkCorporate   NetworkType = "Corporate"
	NetworkGovernment  NetworkType = "Government"
	NetworkCriminal    NetworkType = "Criminal"
	NetworkResidential NetworkType = "Residential"
	NetworkLab         NetworkType = "Lab"
)

// GatewayType is the kind of host that bridges two networks.
type GatewayType string

const (
	GatewayVPNServer      GatewayType = "VPNServer"
	GatewayRouter         GatewayType = "Router"
	GatewayProxyServer    GatewayType = "ProxyServer"
	GatewayJumpBox        GatewayType = "JumpBox"
	GatewayVPNClient      GatewayType = "VPNClient"
	GatewayTunnelEndpoint GatewayType = "TunnelEndpoint"
	GatewayFirewall       GatewayType = "Firewall"
)

// NetworkMetadata is descriptive information about a network.
type NetworkMetadata struct {
	Name              string      `yaml:"name"`
	Description       string      `yaml:"description"`
	Organization      string      `yaml:"organization"`
	Type              NetworkType `yaml:"type"`
	IPRange           string      `yaml:"ip_range"`
	ConnectedNetworks []string    `yaml:"-"`
}

// Gateway is a typed edge from one network to another through a host.
type Gateway struct {
	Type          GatewayType
	SourceNetwork string
	TargetNetwork string
	Hostname      string
}

// Network is a named group of hosts sharing a security profile.
type Network struct {
	ID       string
	Metadata NetworkMetadata
	Security SecurityProfile

	hosts    map[string]*Host
	order    []string
	gateways []Gateway
}

func NewNetwork(id string, meta NetworkMetadata, security SecurityProfile) *Network {
	return &Network{
		ID:       id,
		Metadata: meta,
		Security: security,
		hosts:    make(map[string]*Host),
	}
}

// AddSystem adds a host. Hostnames are unique within a network.
func (n *Network) AddSystem(h *Host) error {
	key := strings.ToLower(h.Hostname)
	if _, exists := n.hosts[key]; exists {
		return fmt.Errorf("host %w: %s", ErrAlreadyExists, h.Hostname)
	}
	n.hosts[key] = h
	n.order = append(n.order, key)
	return nil
}

// AddGateway records an edge and lists the target as a connected network.
func (n *Network) AddGateway(g Gateway) {
	n.gateways = append(n.gateways, g)
	if !slices.Contains(n.Metadata.ConnectedNetworks, g.TargetNetwork) {
		n.Metadata.ConnectedNetworks = append(n.Metadata.ConnectedNetworks, g.TargetNetwork)
	}
}

func (n *Network) Gateways() []Gateway {
	return slices.Clone(n.gateways)
}

// GatewayTo returns the edge leading to target, if any.
func (n *Network) GatewayTo(target string) (Gateway, bool) {
	for _, g := range n.gateways {
		if g.TargetNetwork == target {
			return g, true
		}
	}
	return Gateway{}, false
}

// SystemByHostname finds a host by hostname, name or IP address.
func (n *Network) SystemByHostname(name string) (*Host, bool) {
	if h, ok := n.hosts[strings.ToLower(name)]; ok {
		return h, true
	}
	for _, key := range n.order {
		h := n.hosts[key]
		if h.IP == name || strings.EqualFold(h.Name, name) {
			return h, true
		}
	}
	return nil, false
}

// ListDevices returns hosts in insertion order.
func (n *Network) ListDevices() []*Host {
	out := make([]*Host, 0, len(n.order))
	for _, key := range n.order {
		out = append(out, n.hosts[key])
	}
	return out
}

// GatewayHost picks the host that fronts the network: a router if there is
// one, else a server, else the first host.
func (n *Network) GatewayHost() *Host {
	devices := n.ListDevices()
	for _, want := range []DeviceType{DeviceRouter, DeviceServer} {
		for _, h := range devices {
			if h.Type == want {
				return h
			}
		}
	}
	if len(devices) > 0 {
		return devices[0]
	}
	return nil
}
