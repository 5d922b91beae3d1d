package domain

import (
	"fmt"
	"time"
)

type ConnectionType string

const (
	ConnectionDirect ConnectionType = "Direct"
	ConnectionVPN    ConnectionType = "VPN"
	ConnectionSSH    ConnectionType = "SSH"
	ConnectionProxy  ConnectionType = "Proxy"
	ConnectionTor    ConnectionType = "Tor"
	ConnectionBounce ConnectionType = "Bounce"
	ConnectionBridge ConnectionType = "Bridge"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "Disconnected"
	StatusConnecting   ConnectionStatus = "Connecting"
	StatusConnected    ConnectionStatus = "Connected"
	StatusReconnecting ConnectionStatus = "Reconnecting"
	StatusFailed       ConnectionStatus = "Failed"
	StatusTimeout      ConnectionStatus = "Timeout"
	StatusDenied       ConnectionStatus = "Denied"
)

// NetworkConnection is a simulated link between two networks.
type NetworkConnection struct {
	ID            string
	SourceNetwork string
	TargetNetwork string
	Type          ConnectionType
	Status        ConnectionStatus
	EstablishedAt time.Time
	LastActivity  time.Time

	Latency    float64 // ms
	Bandwidth  float64 // Mbps
	PacketLoss int     // percent

	Encrypted      bool
	EncryptionType string
	Authenticated  bool

	GatewayHost string
	Parameters  map[string]string
}

// Touch records activity on the connection.
func (c *NetworkConnection) Touch(now time.Time) {
	c.LastActivity = now
}

// IsIdle reports whether no activity happened for longer than timeout.
func (c *NetworkConnection) IsIdle(now time.Time, timeout time.Duration) bool {
	return now.Sub(c.LastActivity) > timeout
}

// QualityScore rates the link from 0 to 100.
func (c *NetworkConnection) QualityScore() int {
	score := 100
	switch {
	case c.Latency > 100:
		score -= 20
	case c.Latency > 50:
		score -= 10
	}
	score -= c.PacketLoss * 2
	if c.Encrypted {
		score += 5
	}
	return max(0, min(100, score))
}

func (c *NetworkConnection) Description() string {
	security := "unencrypted"
	if c.Encrypted {
		security = "encrypted"
	}
	auth := "unauthenticated"
	if c.Authenticated {
		auth = "authenticated"
	}
	return fmt.Sprintf("%s connection from %s to %s (%s, %s)", c.Type, c.SourceNetwork, c.TargetNetwork, security, auth)
}
