package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		conn NetworkConnection
		want int
	}{
		{"fast plain", NetworkConnection{Latency: 10}, 100},
		{"fast encrypted capped", NetworkConnection{Latency: 10, Encrypted: true}, 100},
		{"medium latency", NetworkConnection{Latency: 75}, 90},
		{"slow encrypted", NetworkConnection{Latency: 150, Encrypted: true}, 85},
		{"lossy", NetworkConnection{Latency: 150, PacketLoss: 50}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.conn.QualityScore(), tt.name)
	}
}

func TestConnectionIdle(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NetworkConnection{LastActivity: start}
	assert.False(t, c.IsIdle(start.Add(30*time.Minute), 30*time.Minute))
	assert.True(t, c.IsIdle(start.Add(31*time.Minute), 30*time.Minute))

	c.Touch(start.Add(31 * time.Minute))
	assert.False(t, c.IsIdle(start.Add(40*time.Minute), 30*time.Minute))
}

func TestConnectionDescription(t *testing.T) {
	c := NetworkConnection{Type: ConnectionVPN, SourceNetwork: "public", TargetNetwork: "corp", Encrypted: true, Authenticated: true}
	assert.Equal(t, "VPN connection from public to corp (encrypted, authenticated)", c.Description())
}
