package connection

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

const (
	// DefaultIdleTimeout is how long a connection may stay unused.
	DefaultIdleTimeout = 30 * time.Minute
	maxHistory         = 100
)

// Params describes a connection attempt.
type Params struct {
	Type     domain.ConnectionType
	Source   string
	Target   string
	Gateway  string
	Protocol string
	Extra    map[string]string
}

// Simulator establishes simulated links between networks and keeps them
// alive until they are closed or go idle.
type Simulator struct {
	active      map[string]*domain.NetworkConnection
	history     []domain.NetworkConnection
	subject     *Subject
	rng         *rand.Rand
	now         func() time.Time
	idleTimeout time.Duration
	mu          sync.Mutex
}

// NewSimulator creates a simulator whose metrics are drawn from a generator
// seeded with seed.
func NewSimulator(seed int64, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		active:      make(map[string]*domain.NetworkConnection),
		subject:     NewSubject(),
		rng:         rand.New(rand.NewSource(seed)),
		now:         now,
		idleTimeout: DefaultIdleTimeout,
	}
}

// SetIdleTimeout overrides DefaultIdleTimeout.
func (s *Simulator) SetIdleTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleTimeout = d
}

func (s *Simulator) AddObserver(o ports.ConnectionObserver) {
	s.subject.AddObserver(o)
}

// Connect returns the live connection between p.Source and p.Target,
// refreshing it, or simulates a new one.
func (s *Simulator) Connect(p Params) (domain.NetworkConnection, error) {
	s.mu.Lock()
	now := s.now()
	if existing := s.find(p.Source, p.Target); existing != nil {
		existing.Touch(now)
		conn := *existing
		s.mu.Unlock()
		return conn, nil
	}

	conn := &domain.NetworkConnection{
		ID:            uuid.New().String(),
		SourceNetwork: p.Source,
		TargetNetwork: p.Target,
		Type:          p.Type,
		Status:        domain.StatusConnecting,
		EstablishedAt: now,
		LastActivity:  now,
		GatewayHost:   p.Gateway,
		Parameters:    p.Extra,
	}
	if err := s.simulate(conn, p); err != nil {
		conn.Status = domain.StatusFailed
		s.record(*conn)
		failed := *conn
		s.mu.Unlock()

		telemetry.ConnectionsTotal.WithLabelValues(string(p.Type), string(domain.StatusFailed)).Inc()
		s.subject.NotifyFailed(failed, err)
		return failed, err
	}

	conn.Status = domain.StatusConnected
	s.active[conn.ID] = conn
	s.record(*conn)
	established := *conn
	s.mu.Unlock()

	telemetry.ConnectionsTotal.WithLabelValues(string(p.Type), string(domain.StatusConnected)).Inc()
	slog.Info("Network connection established", "id", established.ID, "type", established.Type,
		"source", established.SourceNetwork, "target", established.TargetNetwork)
	s.subject.NotifyEstablished(established)
	return established, nil
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulator) simulate(c *domain.NetworkConnection, p Params) error {
	switch p.Type {
	case domain.ConnectionVPN:
		c.Latency = s.uniform(50, 200) + 20
		c.Bandwidth = s.uniform(10, 100) * 0.8
		c.PacketLoss = s.rng.Intn(3)
		c.Encrypted = true
		c.Authenticated = true
		c.EncryptionType = p.Protocol
		if c.EncryptionType == "" {
			c.EncryptionType = "OpenVPN"
		}
	case domain.ConnectionSSH:
		c.Latency = s.uniform(30, 150)
		c.Bandwidth = s.uniform(5, 50)
		c.PacketLoss = s.rng.Intn(2)
		c.Encrypted = true
		c.Authenticated = true
		c.EncryptionType = "SSH-2"
	case domain.ConnectionProxy:
		c.Latency = s.uniform(100, 500)
		c.Bandwidth = s.uniform(1, 25)
		c.PacketLoss = s.rng.Intn(6)
	case domain.ConnectionTor:
		c.Latency = s.uniform(100, 500) + s.uniform(200, 400)
		c.Bandwidth = s.uniform(1, 25) * 0.5
		c.PacketLoss = s.rng.Intn(8)
		c.Encrypted = true
		c.EncryptionType = "Onion"
	case domain.ConnectionDirect:
		c.Latency = s.uniform(1, 50)
		c.Bandwidth = s.uniform(50, 1000)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedConnection, p.Type)
	}
	return nil
}

func (s *Simulator) find(source, target string) *domain.NetworkConnection {
	for _, c := range s.active {
		if c.SourceNetwork == source && c.TargetNetwork == target && c.Status == domain.StatusConnected {
			return c
		}
	}
	return nil
}

func (s *Simulator) record(c domain.NetworkConnection) {
	s.history = append(s.history, c)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// Find returns the live connection between two networks.
func (s *Simulator) Find(source, target string) (domain.NetworkConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.find(source, target); c != nil {
		return *c, true
	}
	return domain.NetworkConnection{}, false
}

// Touch refreshes every live connection into target.
func (s *Simulator) Touch(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, c := range s.active {
		if c.TargetNetwork == target {
			c.Touch(now)
		}
	}
}

// Disconnect closes a connection by id.
func (s *Simulator) Disconnect(id string) error {
	s.mu.Lock()
	c, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("connection %s not found", id)
	}
	delete(s.active, id)
	c.Status = domain.StatusDisconnected
	closed := *c
	s.record(closed)
	s.mu.Unlock()

	s.subject.NotifyLost(closed)
	return nil
}

// ExpireIdle closes every connection idle for longer than the timeout and
// returns them.
func (s *Simulator) ExpireIdle() []domain.NetworkConnection {
	s.mu.Lock()
	now := s.now()
	var expired []domain.NetworkConnection
	for id, c := range s.active {
		if !c.IsIdle(now, s.idleTimeout) {
			continue
		}
		delete(s.active, id)
		c.Status = domain.StatusTimeout
		expired = append(expired, *c)
		s.record(*c)
	}
	s.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].EstablishedAt.Before(expired[j].EstablishedAt) })
	for _, c := range expired {
		slog.Info("Network connection timed out", "id", c.ID, "target", c.TargetNetwork)
		telemetry.ConnectionsTotal.WithLabelValues(string(c.Type), string(domain.StatusTimeout)).Inc()
		s.subject.NotifyLost(c)
	}
	return expired
}

// Active lists live connections, oldest first.
func (s *Simulator) Active() []domain.NetworkConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.NetworkConnection, 0, len(s.active))
	for _, c := range s.active {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EstablishedAt.Equal(out[j].EstablishedAt) {
			return out[i].TargetNetwork < out[j].TargetNetwork
		}
		return out[i].EstablishedAt.Before(out[j].EstablishedAt)
	})
	return out
}

// History returns recent connection events, oldest first.
func (s *Simulator) History() []domain.NetworkConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.NetworkConnection, len(s.history))
	copy(out, s.history)
	return out
}

// Report renders the live connections as a text block.
func (s *Simulator) Report() string {
	active := s.Active()
	var b strings.Builder
	b.WriteString("ACTIVE NETWORK CONNECTIONS\n")
	b.WriteString("==========================\n")
	if len(active) == 0 {
		b.WriteString("No active network connections.\n")
		return b.String()
	}
	for _, c := range active {
		fmt.Fprintf(&b, "[%s] %s -> %s\n", c.Type, c.SourceNetwork, c.TargetNetwork)
		fmt.Fprintf(&b, "  Status: %s | Latency: %.1f ms | Bandwidth: %.1f Mbps | Quality: %d/100\n",
			c.Status, c.Latency, c.Bandwidth, c.QualityScore())
		enc := "none"
		if c.Encrypted {
			enc = c.EncryptionType
		}
		fmt.Fprintf(&b, "  Encryption: %s | Established: %s", enc, c.EstablishedAt.Format("15:04:05"))
		if c.GatewayHost != "" {
			fmt.Fprintf(&b, " | Gateway: %s", c.GatewayHost)
		}
		b.WriteString("\n")
	}
	return b.String()
}
