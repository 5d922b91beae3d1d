package vulndb

import (
	"context"
	"sort"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// Matcher implements ports.VulnerabilityMatcher on top of the catalog.
type Matcher struct {
	repo ports.VulnerabilityRepository
}

func NewMatcher(repo ports.VulnerabilityRepository) *Matcher {
	return &Matcher{repo: repo}
}

// Match returns the catalog entries whose version range contains the
// installed version, most severe first.
func (m *Matcher) Match(ctx context.Context, sw *domain.Software) ([]domain.Vulnerability, error) {
	entries, err := m.repo.FindByProduct(ctx, normalizeProduct(sw.Name))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(entries))
	var out []domain.Vulnerability
	for _, e := range entries {
		if seen[e.CVE] || !e.Affects(sw.Version) {
			continue
		}
		seen[e.CVE] = true
		v := e.Vulnerability
		v.Software = sw.Name
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].CVE < out[j].CVE
	})
	return out, nil
}

// normalizeProduct maps common spellings onto catalog product names.
func normalizeProduct(product string) string {
	product = strings.ToLower(strings.TrimSpace(product))

	aliases := map[string]string{
		"httpd":         "apache",
		"apache httpd":  "apache",
		"apache2":       "apache",
		"apache tomcat": "tomcat",
		"postgres":      "postgresql",
		"mongo":         "mongodb",
		"smb":           "samba",
		"named":         "bind",
		"dhcpd":         "isc-dhcp",
		"isc dhcp":      "isc-dhcp",
		"strongswan":    "strongswan",
		"wg":            "wireguard",
	}
	if normalized, ok := aliases[product]; ok {
		return normalized
	}
	return product
}

var _ ports.VulnerabilityMatcher = (*Matcher)(nil)
