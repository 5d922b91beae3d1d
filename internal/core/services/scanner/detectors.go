package scanner

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// Detector looks for network clues in any scanned file.
type Detector interface {
	Name() string
	Detect(f File) []domain.DiscoveryClue
}

var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// IsPrivateIP reports whether s is an IPv4 address in an RFC 1918 range.
func IsPrivateIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return false
	}
	for _, p := range privateRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// PrivateIPDetector reports private IPv4 addresses.
type PrivateIPDetector struct{}

var reIPv4 = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)

func (d *PrivateIPDetector) Name() string { return "PrivateIPDetector" }

func (d *PrivateIPDetector) Detect(f File) []domain.DiscoveryClue {
	var clues []domain.DiscoveryClue
	for _, ip := range reIPv4.FindAllString(f.Content, -1) {
		if !IsPrivateIP(ip) {
			continue
		}
		c := domain.NewDiscoveryClue(domain.UnknownNetwork, domain.KindIPAddressReference, "", f.Path)
		c.Properties[domain.PropIPAddress] = ip
		c.Reliability = 60
		clues = append(clues, c)
	}
	return clues
}

// InternalDomainDetector reports host names under internal suffixes.
type InternalDomainDetector struct{}

var reInternalDomain = regexp.MustCompile(`\b[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.(?:corp|local|internal)\b`)

func (d *InternalDomainDetector) Name() string { return "InternalDomainDetector" }

func (d *InternalDomainDetector) Detect(f File) []domain.DiscoveryClue {
	var clues []domain.DiscoveryClue
	for _, name := range reInternalDomain.FindAllString(f.Content, -1) {
		c := domain.NewDiscoveryClue(domain.UnknownNetwork, domain.KindDomainReference, "", f.Path)
		c.Properties[domain.PropDomainName] = strings.ToLower(name)
		c.Reliability = 70
		clues = append(clues, c)
	}
	return clues
}

// DefaultDetectors is the built-in detector set.
func DefaultDetectors() []Detector {
	return []Detector{
		&PrivateIPDetector{},
		&InternalDomainDetector{},
	}
}
