package connection

import (
	"testing"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	established []domain.NetworkConnection
	lost        []domain.NetworkConnection
	failed      []error
}

func (r *recorder) OnEstablished(c domain.NetworkConnection) { r.established = append(r.established, c) }
func (r *recorder) OnLost(c domain.NetworkConnection)        { r.lost = append(r.lost, c) }
func (r *recorder) OnFailed(_ domain.NetworkConnection, err error) {
	r.failed = append(r.failed, err)
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newSim() (*Simulator, *clock, *recorder) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSimulator(1, clk.Now)
	rec := &recorder{}
	sim.AddObserver(rec)
	return sim, clk, rec
}

func TestConnect_MetricsByType(t *testing.T) {
	sim, _, _ := newSim()

	vpn, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp", Protocol: "OpenVPN"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, vpn.Status)
	assert.True(t, vpn.Encrypted)
	assert.True(t, vpn.Authenticated)
	assert.Equal(t, "OpenVPN", vpn.EncryptionType)
	assert.GreaterOrEqual(t, vpn.Latency, 70.0)
	assert.LessOrEqual(t, vpn.Latency, 220.0)
	assert.LessOrEqual(t, vpn.Bandwidth, 80.0)

	direct, err := sim.Connect(Params{Type: domain.ConnectionDirect, Source: "public", Target: "lab"})
	require.NoError(t, err)
	assert.False(t, direct.Encrypted)
	assert.LessOrEqual(t, direct.Latency, 50.0)
	assert.GreaterOrEqual(t, direct.Bandwidth, 50.0)

	ssh, err := sim.Connect(Params{Type: domain.ConnectionSSH, Source: "corp", Target: "internal"})
	require.NoError(t, err)
	assert.Equal(t, "SSH-2", ssh.EncryptionType)

	tor, err := sim.Connect(Params{Type: domain.ConnectionTor, Source: "public", Target: "dark"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tor.Latency, 300.0)

	assert.Len(t, sim.Active(), 4)
}

func TestConnect_ReusesLiveConnection(t *testing.T) {
	sim, clk, rec := newSim()

	first, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp"})
	require.NoError(t, err)
	clk.t = clk.t.Add(10 * time.Minute)
	second, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, clk.t, second.LastActivity)
	assert.Len(t, sim.Active(), 1)
	assert.Len(t, rec.established, 1)
}

func TestConnect_Unsupported(t *testing.T) {
	sim, _, rec := newSim()

	for _, typ := range []domain.ConnectionType{domain.ConnectionBounce, domain.ConnectionBridge} {
		conn, err := sim.Connect(Params{Type: typ, Source: "public", Target: "corp"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedConnection)
		assert.Equal(t, domain.StatusFailed, conn.Status)
	}
	assert.Empty(t, sim.Active())
	assert.Len(t, rec.failed, 2)
	assert.Len(t, sim.History(), 2)
}

func TestExpireIdle(t *testing.T) {
	sim, clk, rec := newSim()

	_, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp"})
	require.NoError(t, err)
	clk.t = clk.t.Add(20 * time.Minute)
	_, err = sim.Connect(Params{Type: domain.ConnectionDirect, Source: "public", Target: "lab"})
	require.NoError(t, err)

	clk.t = clk.t.Add(15 * time.Minute)
	expired := sim.ExpireIdle()
	require.Len(t, expired, 1)
	assert.Equal(t, "corp", expired[0].TargetNetwork)
	assert.Equal(t, domain.StatusTimeout, expired[0].Status)
	require.Len(t, rec.lost, 1)

	active := sim.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "lab", active[0].TargetNetwork)
}

func TestTouchKeepsConnectionAlive(t *testing.T) {
	sim, clk, _ := newSim()
	_, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp"})
	require.NoError(t, err)

	clk.t = clk.t.Add(25 * time.Minute)
	sim.Touch("corp")
	clk.t = clk.t.Add(25 * time.Minute)
	assert.Empty(t, sim.ExpireIdle())
}

func TestDisconnect(t *testing.T) {
	sim, _, rec := newSim()
	conn, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp"})
	require.NoError(t, err)

	require.NoError(t, sim.Disconnect(conn.ID))
	assert.Empty(t, sim.Active())
	require.Len(t, rec.lost, 1)
	assert.Equal(t, domain.StatusDisconnected, rec.lost[0].Status)
	assert.Error(t, sim.Disconnect(conn.ID))
}

func TestReport(t *testing.T) {
	sim, _, _ := newSim()
	assert.Contains(t, sim.Report(), "No active network connections.")

	_, err := sim.Connect(Params{Type: domain.ConnectionVPN, Source: "public", Target: "corp", Gateway: "vpn.corp.local"})
	require.NoError(t, err)
	report := sim.Report()
	assert.Contains(t, report, "ACTIVE NETWORK CONNECTIONS")
	assert.Contains(t, report, "[VPN] public -> corp")
	assert.Contains(t, report, "Gateway: vpn.corp.local")
}
