package world

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"slices"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// ScanHost runs the credential scanner on a host the player controls: the
// local machine or a root-owned host. Valid credentials are stored and clues
// are tied to networks and recorded in the ledger.
func (w *World) ScanHost(ctx context.Context, hostname string) (domain.ScanResults, error) {
	host, err := w.ResolveHost(hostname)
	if err != nil {
		return domain.ScanResults{}, err
	}
	if host != w.local && !host.HasRootAccess() {
		return domain.ScanResults{}, fmt.Errorf("%w on %s", domain.ErrNotRoot, host.Hostname)
	}

	results := w.scanner.Scan(host)
	fallback, ok := w.NetworkOf(host.Hostname)
	if !ok {
		fallback = w.CurrentNetworkID()
	}
	stored := w.player.StoreScanResults(results, fallback)

	newClues := 0
	for i, c := range results.Clues {
		c = w.ResolveClue(c)
		results.Clues[i] = c
		if w.ledger.AddClue(c) {
			newClues++
		}
	}
	slog.Info("Host scanned", "host", host.Hostname, "stored_credentials", stored, "new_clues", newClues)
	return results, nil
}

// ResolveClue ties a clue with an unknown target to a network using its
// network name, IP address, domain or server properties.
func (w *World) ResolveClue(c domain.DiscoveryClue) domain.DiscoveryClue {
	if c.NetworkID != "" && c.NetworkID != domain.UnknownNetwork {
		if _, ok := w.Network(c.NetworkID); ok {
			return c
		}
		if id, ok := w.networkByName(c.NetworkID); ok {
			c.NetworkID = id
			return c
		}
	}
	if id, ok := w.networkByName(c.Properties[domain.PropNetworkName]); ok {
		c.NetworkID = id
		return c
	}
	if id, ok := w.networkByIP(c.Properties[domain.PropIPAddress]); ok {
		c.NetworkID = id
		return c
	}
	for _, key := range []string{domain.PropDomainName, domain.PropServerAddress} {
		if id, ok := w.networkByServer(c.Properties[key]); ok {
			c.NetworkID = id
			return c
		}
	}
	c.NetworkID = domain.UnknownNetwork
	return c
}

func (w *World) networkByName(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, n := range w.Networks() {
		if strings.EqualFold(n.ID, name) || strings.EqualFold(n.Metadata.Name, name) {
			return n.ID, true
		}
	}
	return "", false
}

func (w *World) networkByIP(ip string) (string, bool) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", false
	}
	for _, n := range w.Networks() {
		if n.ID == PublicNetworkID {
			continue
		}
		if prefix, err := netip.ParsePrefix(n.Metadata.IPRange); err == nil && prefix.Contains(addr) {
			return n.ID, true
		}
		if _, ok := n.SystemByHostname(ip); ok {
			return n.ID, true
		}
	}
	return "", false
}

func (w *World) networkByServer(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if id, ok := w.NetworkOf(name); ok && id != PublicNetworkID {
		return id, true
	}
	for _, n := range w.Networks() {
		for _, r := range w.access.Profile(n.ID).Requirements {
			if req, ok := r.(domain.VPNCredentialRequirement); ok && strings.EqualFold(req.Server, name) {
				return n.ID, true
			}
		}
	}
	return "", false
}

// ScanVulnerabilities probes the open ports of a host, or a single port when
// port > 0, and files every vulnerability found in the player's inventory.
func (w *World) ScanVulnerabilities(ctx context.Context, hostname string, port int) ([]domain.VulnerabilityRecord, error) {
	host, err := w.ResolveHost(hostname)
	if err != nil {
		return nil, err
	}
	if err := w.catalog.GenerateVulnerabilities(ctx, host); err != nil {
		return nil, err
	}

	ports := host.OpenPorts()
	if port > 0 {
		if !slices.Contains(ports, port) {
			return nil, fmt.Errorf("%w: %s:%d", domain.ErrPortClosed, host.Hostname, port)
		}
		ports = []int{port}
	}

	var found []domain.VulnerabilityRecord
	for _, p := range ports {
		sw := host.SoftwareOnPort(p)
		if sw == nil {
			continue
		}
		for _, v := range sw.Vulnerabilities() {
			w.player.AddVulnerability(v, host.Hostname, p)
			found = append(found, domain.VulnerabilityRecord{Vulnerability: v, Host: host.Hostname, Port: p, DiscoveredAt: w.now()})
		}
	}

	if err := w.player.WriteInventory(w.local.FS); err != nil {
		slog.Warn("Failed to write vulnerability inventory", "error", err)
	}
	w.save(ctx)
	slog.Info("Vulnerability scan finished", "host", host.Hostname, "ports", len(ports), "found", len(found))
	return found, nil
}

// Exploit uses a scanned vulnerability to take root on a host. It reports
// whether the host was newly compromised.
func (w *World) Exploit(ctx context.Context, hostname, cve string) (bool, error) {
	host, err := w.ResolveHost(hostname)
	if err != nil {
		return false, err
	}
	if host == w.local {
		return false, fmt.Errorf("%w: refusing to exploit the local machine", domain.ErrAccessDenied)
	}
	if err := w.catalog.GenerateVulnerabilities(ctx, host); err != nil {
		return false, err
	}
	if !w.player.KnowsVulnerability(host.Hostname, cve) {
		return false, fmt.Errorf("%w: %s on %s, run vuln-scan first", domain.ErrNotScanned, cve, host.Hostname)
	}
	if !host.HasCVE(cve) {
		return false, fmt.Errorf("%w: %s does not affect %s", domain.ErrVulnerabilityUnknown, cve, host.Hostname)
	}
	return w.grantRoot(ctx, host), nil
}

// grantRoot owns a host once and saves progress.
func (w *World) grantRoot(ctx context.Context, host *domain.Host) bool {
	first := host.GrantRootAccess()
	w.player.RecordRootAccess(host.Hostname)
	if first {
		network, _ := w.NetworkOf(host.Hostname)
		telemetry.HostsCompromised.WithLabelValues(network).Inc()
		slog.Info("Host compromised", "host", host.Hostname, "network", network)
		w.save(ctx)
	}
	return first
}

// RestoreProgress re-applies loaded progress to the hosts of the world.
// Owned hosts get root back and known vulnerabilities still present on a
// host return to the inventory.
func (w *World) RestoreProgress(ctx context.Context) {
	owned := 0
	for _, hostname := range w.player.CompromisedHosts() {
		if h, ok := w.systemByHostname(hostname); ok {
			h.GrantRootAccess()
			owned++
		}
	}

	restored := 0
	for _, hostname := range w.player.VulnerableHosts() {
		h, ok := w.systemByHostname(hostname)
		if !ok {
			continue
		}
		if err := w.catalog.GenerateVulnerabilities(ctx, h); err != nil {
			slog.Warn("Failed to regenerate vulnerabilities", "host", hostname, "error", err)
			continue
		}
		for _, p := range h.OpenPorts() {
			sw := h.SoftwareOnPort(p)
			if sw == nil {
				continue
			}
			for _, v := range sw.Vulnerabilities() {
				if w.player.KnowsVulnerability(h.Hostname, v.CVE) && w.player.AddVulnerability(v, h.Hostname, p) {
					restored++
				}
			}
		}
	}
	if restored > 0 {
		if err := w.player.WriteInventory(w.local.FS); err != nil {
			slog.Warn("Failed to write vulnerability inventory", "error", err)
		}
	}
	slog.Info("Progress restored", "owned", owned, "inventory", restored)
}

func (w *World) systemByHostname(hostname string) (*domain.Host, bool) {
	for _, n := range w.Networks() {
		if h, ok := n.SystemByHostname(hostname); ok {
			return h, true
		}
	}
	return nil, false
}

func (w *World) save(ctx context.Context) {
	if err := w.player.Save(ctx); err != nil {
		slog.Error("Failed to save progress", "error", err)
	}
}
