package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/services/access"
	"github.com/lcalzada-xor/netcity/internal/core/services/auth"
	"github.com/lcalzada-xor/netcity/internal/core/services/catalog"
	"github.com/lcalzada-xor/netcity/internal/core/services/connection"
	"github.com/lcalzada-xor/netcity/internal/core/services/discovery"
	"github.com/lcalzada-xor/netcity/internal/core/services/player"
	"github.com/lcalzada-xor/netcity/internal/core/services/scanner"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// PublicNetworkID is where the player starts and falls back to.
const PublicNetworkID = "public"

// Deps are the services a World coordinates.
type Deps struct {
	Local       *domain.Host
	Access      *access.Controller
	Connections *connection.Simulator
	Ledger      *discovery.Ledger
	Player      *player.State
	Scanner     *scanner.Scanner
	Catalog     *catalog.Generator
	Auth        *auth.AuthService
	Now         func() time.Time
}

// World owns every network and tracks where the player currently is.
type World struct {
	networks map[string]*domain.Network
	order    []string
	local    *domain.Host

	access  *access.Controller
	conns   *connection.Simulator
	ledger  *discovery.Ledger
	player  *player.State
	scanner *scanner.Scanner
	catalog *catalog.Generator
	auth    *auth.AuthService
	now     func() time.Time

	current  string
	sessions []*Session
	mu       sync.RWMutex
}

func New(d Deps) *World {
	if d.Now == nil {
		d.Now = time.Now
	}
	w := &World{
		networks: make(map[string]*domain.Network),
		local:    d.Local,
		access:   d.Access,
		conns:    d.Connections,
		ledger:   d.Ledger,
		player:   d.Player,
		scanner:  d.Scanner,
		catalog:  d.Catalog,
		auth:     d.Auth,
		now:      d.Now,
		current:  PublicNetworkID,
	}
	w.conns.AddObserver(&linkObserver{world: w})
	w.player.SetNetworkResolver(w.NetworkOf)
	w.ledger.OnDiscovery(func(id string) {
		slog.Info("Network discovered", "network", id)
	})
	return w
}

// AddNetwork registers a network. The public network is always discovered.
func (w *World) AddNetwork(n *domain.Network) error {
	w.mu.Lock()
	if _, exists := w.networks[n.ID]; exists {
		w.mu.Unlock()
		return fmt.Errorf("network %w: %s", domain.ErrAlreadyExists, n.ID)
	}
	w.networks[n.ID] = n
	w.order = append(w.order, n.ID)
	w.mu.Unlock()

	if n.ID == PublicNetworkID {
		w.ledger.MarkDiscovered(n.ID)
	}
	return nil
}

func (w *World) Network(id string) (*domain.Network, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.networks[id]
	return n, ok
}

// Networks lists networks in definition order.
func (w *World) Networks() []*domain.Network {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*domain.Network, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.networks[id])
	}
	return out
}

// DiscoveredNetworks lists the networks the player knows about.
func (w *World) DiscoveredNetworks() []*domain.Network {
	var out []*domain.Network
	for _, n := range w.Networks() {
		if w.ledger.IsDiscovered(n.ID) {
			out = append(out, n)
		}
	}
	return out
}

func (w *World) IsDiscovered(networkID string) bool {
	return w.ledger.IsDiscovered(networkID)
}

func (w *World) CurrentNetworkID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *World) CurrentNetwork() *domain.Network {
	n, _ := w.Network(w.CurrentNetworkID())
	return n
}

func (w *World) Local() *domain.Host                { return w.local }
func (w *World) Player() *player.State              { return w.player }
func (w *World) Ledger() *discovery.Ledger          { return w.ledger }
func (w *World) Access() *access.Controller         { return w.access }
func (w *World) Connections() *connection.Simulator { return w.conns }
func (w *World) Catalog() *catalog.Generator        { return w.catalog }

// NetworkOf finds the network a host belongs to.
func (w *World) NetworkOf(hostname string) (string, bool) {
	for _, n := range w.Networks() {
		if _, ok := n.SystemByHostname(hostname); ok {
			return n.ID, true
		}
	}
	return "", false
}

// ConnectionTypeFor picks how the player reaches a network.
func ConnectionTypeFor(n *domain.Network, p *domain.AccessProfile) domain.ConnectionType {
	switch {
	case n.Metadata.Type == domain.NetworkCriminal:
		return domain.ConnectionTor
	case p.Type == domain.AccessVPN || n.Security.RequiresVPN:
		return domain.ConnectionVPN
	default:
		return domain.ConnectionDirect
	}
}

// ConnectToNetwork moves the player into another network. When vpn is nil a
// stored VPN credential for the network is used, if any.
func (w *World) ConnectToNetwork(ctx context.Context, id string, vpn *domain.VPNCredential) (domain.NetworkConnection, error) {
	n, ok := w.Network(id)
	if !ok {
		return domain.NetworkConnection{}, fmt.Errorf("%w: %s", domain.ErrNetworkNotFound, id)
	}
	if !w.ledger.IsDiscovered(id) {
		return domain.NetworkConnection{}, fmt.Errorf("%w: %s", domain.ErrNetworkNotDiscovered, id)
	}
	source := w.CurrentNetworkID()
	if source == id {
		return domain.NetworkConnection{}, fmt.Errorf("%w to %s", domain.ErrAlreadyConnected, id)
	}

	profile := w.access.Profile(id)
	if vpn == nil && profile.Type == domain.AccessVPN {
		if stored, ok := w.player.VPNCredentialFor(id); ok {
			vpn = stored
		}
	}

	typ := ConnectionTypeFor(n, profile)
	security := n.Security
	if err := w.access.CheckAccess(access.Request{NetworkID: id, Source: source, VPN: vpn, Security: &security}); err != nil {
		telemetry.ConnectionsTotal.WithLabelValues(string(typ), string(domain.StatusDenied)).Inc()
		slog.Warn("Network access denied", "network", id, "source", source, "error", err)
		return domain.NetworkConnection{}, err
	}

	params := connection.Params{Type: typ, Source: source, Target: id}
	if gw := n.GatewayHost(); gw != nil {
		params.Gateway = gw.Hostname
	}
	if vpn != nil {
		params.Protocol = vpn.Protocol
		params.Extra = map[string]string{"server": vpn.Server, "username": vpn.Username}
	}
	conn, err := w.conns.Connect(params)
	if err != nil {
		return conn, err
	}

	w.mu.Lock()
	w.current = id
	w.sessions = nil
	w.mu.Unlock()

	slog.Info("Connected to network", "network", id, "source", source, "type", conn.Type)
	return conn, nil
}

// Disconnect closes the link into the current network and returns the
// player to the public network.
func (w *World) Disconnect() error {
	current := w.CurrentNetworkID()
	if current == PublicNetworkID {
		return fmt.Errorf("not connected to any private network")
	}
	for _, c := range w.conns.Active() {
		if c.TargetNetwork == current {
			if err := w.conns.Disconnect(c.ID); err != nil {
				return err
			}
		}
	}
	w.fallback(current)
	return nil
}

// ExpireIdleConnections closes idle links. Losing the link to the current
// network sends the player back to the public network.
func (w *World) ExpireIdleConnections() []domain.NetworkConnection {
	return w.conns.ExpireIdle()
}

// fallback returns to the public network when from is still current.
func (w *World) fallback(from string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != from || from == PublicNetworkID {
		return false
	}
	w.current = PublicNetworkID
	w.sessions = nil
	return true
}

// linkObserver keeps the world in sync with connection events.
type linkObserver struct {
	world *World
}

func (o *linkObserver) OnEstablished(conn domain.NetworkConnection) {
	o.world.ledger.MarkDiscovered(conn.TargetNetwork)
}

func (o *linkObserver) OnLost(conn domain.NetworkConnection) {
	if o.world.fallback(conn.TargetNetwork) {
		slog.Warn("Connection lost, back on the public network", "network", conn.TargetNetwork, "status", conn.Status)
	}
}

func (o *linkObserver) OnFailed(conn domain.NetworkConnection, err error) {
	slog.Warn("Connection failed", "network", conn.TargetNetwork, "type", conn.Type, "error", err)
}
