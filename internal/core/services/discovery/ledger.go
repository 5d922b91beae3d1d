package discovery

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// DiscoveryThreshold is the number of distinct clues that reveal a network.
const DiscoveryThreshold = 3

// Ledger collects clues and tracks which networks the player knows about.
type Ledger struct {
	clues       map[string][]domain.DiscoveryClue
	seen        map[string]struct{}
	discovered  map[string]struct{}
	onDiscovery []func(networkID string)
	mu          sync.RWMutex
}

func NewLedger() *Ledger {
	return &Ledger{
		clues:      make(map[string][]domain.DiscoveryClue),
		seen:       make(map[string]struct{}),
		discovered: make(map[string]struct{}),
	}
}

// OnDiscovery registers a callback run when a network becomes discovered.
func (l *Ledger) OnDiscovery(fn func(networkID string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDiscovery = append(l.onDiscovery, fn)
}

// AddClue records a clue unless an identical one is already known. It
// reports whether the clue was new.
func (l *Ledger) AddClue(c domain.DiscoveryClue) bool {
	l.mu.Lock()
	fp := c.Fingerprint()
	if _, dup := l.seen[fp]; dup {
		l.mu.Unlock()
		return false
	}
	l.seen[fp] = struct{}{}
	l.clues[c.NetworkID] = append(l.clues[c.NetworkID], c)
	telemetry.CluesRecorded.WithLabelValues(string(c.Type())).Inc()

	var fire []func(string)
	if c.NetworkID != domain.UnknownNetwork && len(l.clues[c.NetworkID]) >= DiscoveryThreshold {
		fire = l.markLocked(c.NetworkID)
	}
	l.mu.Unlock()

	for _, fn := range fire {
		fn(c.NetworkID)
	}
	return true
}

// MarkDiscovered reveals a network regardless of its clue count.
func (l *Ledger) MarkDiscovered(networkID string) {
	l.mu.Lock()
	fire := l.markLocked(networkID)
	l.mu.Unlock()
	for _, fn := range fire {
		fn(networkID)
	}
}

func (l *Ledger) markLocked(networkID string) []func(string) {
	if _, ok := l.discovered[networkID]; ok {
		return nil
	}
	l.discovered[networkID] = struct{}{}
	slog.Info("Network discovered", "network", networkID, "clues", len(l.clues[networkID]))
	return append([]func(string){}, l.onDiscovery...)
}

func (l *Ledger) IsDiscovered(networkID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.discovered[networkID]
	return ok
}

// Discovered lists discovered network ids in order.
func (l *Ledger) Discovered() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.discovered))
	for id := range l.discovered {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CluesFor returns the clues pointing at a network.
func (l *Ledger) CluesFor(networkID string) []domain.DiscoveryClue {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.DiscoveryClue(nil), l.clues[networkID]...)
}

// ClueCount is the number of distinct clues pointing at a network.
func (l *Ledger) ClueCount(networkID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clues[networkID])
}
