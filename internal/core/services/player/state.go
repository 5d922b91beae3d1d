package player

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// InventoryPath is where the vulnerability inventory is written on the
// player's own machine.
const InventoryPath = "/home/user/vulnerabilities.txt"

// NetworkResolver maps a hostname to the network it lives in.
type NetworkResolver func(hostname string) (string, bool)

// State is everything the player has collected: credentials, root access,
// compromised hosts and discovered vulnerabilities.
type State struct {
	repo        ports.ProgressRepository
	resolve     NetworkResolver
	credentials map[string]*domain.NetworkCredentials
	rootAccess  map[string]bool
	compromised map[string]struct{}
	discovered  map[string]map[string]struct{}
	inventory   []domain.VulnerabilityRecord
	inventoryBy map[string]bool
	listeners   []func(networkID string, creds domain.NetworkCredentials)
	now         func() time.Time
	mu          sync.RWMutex
}

// NewState creates an empty state persisted through repo. A nil repo keeps
// progress in memory only.
func NewState(repo ports.ProgressRepository, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		repo:        repo,
		credentials: make(map[string]*domain.NetworkCredentials),
		rootAccess:  make(map[string]bool),
		compromised: make(map[string]struct{}),
		discovered:  make(map[string]map[string]struct{}),
		inventoryBy: make(map[string]bool),
		now:         now,
	}
}

// SetNetworkResolver installs the lookup used to file SSH credentials.
func (s *State) SetNetworkResolver(r NetworkResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolve = r
}

// OnCredentials registers a callback run whenever credentials are stored.
func (s *State) OnCredentials(fn func(networkID string, creds domain.NetworkCredentials)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NetworkForHost guesses a network from naming conventions.
func NetworkForHost(hostname string) string {
	h := strings.ToLower(hostname)
	switch {
	case strings.Contains(h, "police"):
		return "gov_police_department"
	case strings.Contains(h, "corp"):
		return "corp_megacorp"
	case strings.Contains(h, "gov"):
		return "gov_city_hall"
	case strings.Contains(h, "onion"):
		return "dark_underground_market"
	default:
		return "public"
	}
}

func (s *State) networkFor(hostname string) string {
	if s.resolve != nil {
		if id, ok := s.resolve(hostname); ok {
			return id
		}
	}
	return NetworkForHost(hostname)
}

// Load restores progress from the repository.
func (s *State) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	p, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	p.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range p.CompromisedHosts {
		s.compromised[h] = struct{}{}
		s.rootAccess[h] = true
	}
	for h, cves := range p.DiscoveredVulnerabilities {
		for _, cve := range cves {
			s.addDiscovered(h, cve)
		}
	}
	slog.Info("Progress loaded", "compromised", len(p.CompromisedHosts), "hosts_with_vulns", len(p.DiscoveredVulnerabilities))
	return nil
}

// Save writes the current progress to the repository.
func (s *State) Save(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.Progress()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Progress snapshots the persisted part of the state.
func (s *State) Progress() domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := domain.NewProgress()
	for h := range s.compromised {
		p.CompromisedHosts = append(p.CompromisedHosts, h)
	}
	for h, set := range s.discovered {
		for cve := range set {
			p.DiscoveredVulnerabilities[h] = append(p.DiscoveredVulnerabilities[h], cve)
		}
	}
	p.Normalize()
	return p
}

// StoreCredential files a valid credential. VPN credentials go to their own
// network, SSH credentials to the network of their host and everything else
// to fallback. Invalid credentials are ignored.
func (s *State) StoreCredential(c domain.Credential, fallback string) bool {
	if c == nil || !c.IsValid() {
		return false
	}
	s.mu.Lock()
	networkID := fallback
	switch v := c.(type) {
	case domain.VPNCredential:
		networkID = v.NetworkID
	case domain.SSHCredential:
		networkID = s.networkFor(v.Host)
	}
	bucket, ok := s.credentials[networkID]
	if !ok {
		bucket = &domain.NetworkCredentials{NetworkID: networkID}
		s.credentials[networkID] = bucket
	}
	added := bucket.Add(c)
	snapshot := *bucket
	listeners := append([]func(string, domain.NetworkCredentials){}, s.listeners...)
	s.mu.Unlock()

	if added {
		for _, fn := range listeners {
			fn(networkID, snapshot)
		}
	}
	return added
}

// StoreScanResults files every valid credential of a scan and returns how
// many were new.
func (s *State) StoreScanResults(r domain.ScanResults, fallback string) int {
	n := 0
	for _, c := range r.Credentials {
		if s.StoreCredential(c, fallback) {
			n++
		}
	}
	return n
}

// VPNCredentialFor returns the stored VPN credential of a network.
func (s *State) VPNCredentialFor(networkID string) (*domain.VPNCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.credentials[networkID]; ok && b.VPN != nil {
		v := *b.VPN
		return &v, true
	}
	return nil, false
}

// SSHCredentialsFor lists stored SSH credentials for a host.
func (s *State) SSHCredentialsFor(hostname string) []domain.SSHCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SSHCredential
	for _, b := range s.credentials {
		for _, c := range b.SSH {
			if strings.EqualFold(c.Host, hostname) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Credentials returns a copy of the credential store keyed by network id.
func (s *State) Credentials() map[string]domain.NetworkCredentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.NetworkCredentials, len(s.credentials))
	for id, b := range s.credentials {
		out[id] = *b
	}
	return out
}

// CredentialCount is the number of stored credentials.
func (s *State) CredentialCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.credentials {
		n += b.Count()
	}
	return n
}

// RecordRootAccess marks a host as owned and compromised.
func (s *State) RecordRootAccess(hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rootAccess[hostname] = true
	s.compromised[hostname] = struct{}{}
}

func (s *State) HasRootAccess(hostname string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootAccess[hostname]
}

func (s *State) IsCompromised(hostname string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.compromised[hostname]
	return ok
}

// CompromisedHosts lists owned hosts in order.
func (s *State) CompromisedHosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.compromised))
	for h := range s.compromised {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func (s *State) addDiscovered(host, cve string) {
	set, ok := s.discovered[host]
	if !ok {
		set = make(map[string]struct{})
		s.discovered[host] = set
	}
	set[cve] = struct{}{}
}

// AddVulnerability records a vulnerability found on a host port. It reports
// false when the same CVE, host and port was already known.
func (s *State) AddVulnerability(v domain.Vulnerability, host string, port int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.VulnerabilityRecord{Vulnerability: v, Host: host, Port: port, DiscoveredAt: s.now()}
	s.addDiscovered(host, v.CVE)
	if s.inventoryBy[rec.Key()] {
		return false
	}
	s.inventoryBy[rec.Key()] = true
	s.inventory = append(s.inventory, rec)
	return true
}

// KnowsVulnerability reports whether cve was discovered on host.
func (s *State) KnowsVulnerability(host, cve string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for known := range s.discovered[host] {
		if strings.EqualFold(known, cve) {
			return true
		}
	}
	return false
}

// DiscoveredVulnerabilities lists the CVE ids known for a host.
func (s *State) DiscoveredVulnerabilities(host string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.discovered[host]))
	for cve := range s.discovered[host] {
		out = append(out, cve)
	}
	sort.Strings(out)
	return out
}

// VulnerableHosts lists the hosts with at least one discovered CVE.
func (s *State) VulnerableHosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.discovered))
	for h, set := range s.discovered {
		if len(set) > 0 {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}

// Inventory returns the vulnerability inventory in discovery order.
func (s *State) Inventory() []domain.VulnerabilityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.VulnerabilityRecord(nil), s.inventory...)
}

// WriteInventory renders the inventory into the player's home directory.
func (s *State) WriteInventory(tree *domain.FileTree) error {
	_, err := tree.WriteFile(InventoryPath, FormatInventory(s.Inventory()))
	return err
}

// FormatInventory renders inventory records as a fixed width table.
func FormatInventory(records []domain.VulnerabilityRecord) string {
	var b strings.Builder
	b.WriteString("VULNERABILITY DATABASE\n=====================\n\n")
	fmt.Fprintf(&b, "%-17s%-10s%-22s%-15s%s\n", "CVE", "SEVERITY", "TARGET", "SOFTWARE", "NAME")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range records {
		target := fmt.Sprintf("%s:%d", r.Host, r.Port)
		fmt.Fprintf(&b, "%-17s%-10.1f%-22s%-15s%s\n", r.CVE, r.Severity, target, r.Software, r.Name)
	}
	return b.String()
}
