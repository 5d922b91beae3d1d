package domain

import (
	"sort"
	"strconv"
	"time"
)

// Progress is the persisted part of the player state.
type Progress struct {
	CompromisedHosts          []string            `json:"compromisedHosts"`
	DiscoveredVulnerabilities map[string][]string `json:"discoveredVulnerabilities"`
}

// NewProgress returns an empty, non-nil progress document.
func NewProgress() Progress {
	return Progress{
		CompromisedHosts:          []string{},
		DiscoveredVulnerabilities: make(map[string][]string),
	}
}

// Normalize sorts and de-duplicates every list so saved documents are stable.
func (p *Progress) Normalize() {
	p.CompromisedHosts = sortedUnique(p.CompromisedHosts)
	if p.DiscoveredVulnerabilities == nil {
		p.DiscoveredVulnerabilities = make(map[string][]string)
	}
	for host, cves := range p.DiscoveredVulnerabilities {
		p.DiscoveredVulnerabilities[host] = sortedUnique(cves)
	}
}

func sortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// VulnerabilityRecord is an entry of the player's vulnerability inventory.
type VulnerabilityRecord struct {
	Vulnerability
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Key is the inventory de-duplication key.
func (r VulnerabilityRecord) Key() string {
	return r.CVE + "|" + r.Host + "|" + strconv.Itoa(r.Port)
}

// ScanResults is what a credential scan of one host produced.
// Credentials may include incomplete leads that fail their validity check.
type ScanResults struct {
	Host         string
	Credentials  []Credential
	Clues        []DiscoveryClue
	ScannedFiles int
}

func (r ScanResults) TotalCredentials() int {
	return len(r.Credentials)
}

func (r ScanResults) Empty() bool {
	return r.TotalCredentials() == 0 && len(r.Clues) == 0
}
