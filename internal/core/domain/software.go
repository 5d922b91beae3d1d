package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// SoftwareCategory groups software templates and device profiles.
type SoftwareCategory string

const (
	CategoryWebServer   SoftwareCategory = "webserver"
	CategoryDatabase    SoftwareCategory = "database"
	CategoryCMS         SoftwareCategory = "cms"
	CategoryFirewall    SoftwareCategory = "firewall"
	CategoryFileServer  SoftwareCategory = "fileserver"
	CategoryOffice      SoftwareCategory = "office"
	CategoryBrowser     SoftwareCategory = "browser"
	CategoryDevelopment SoftwareCategory = "development"
	CategoryBackup      SoftwareCategory = "backup"
	CategoryIoT         SoftwareCategory = "iot"
	CategoryDNS         SoftwareCategory = "dns"
	CategoryDHCP        SoftwareCategory = "dhcp"
	CategoryVPN         SoftwareCategory = "vpn"
)

// Vulnerability is a catalog entry that can be attached to installed software.
type Vulnerability struct {
	CVE         string    `json:"cve"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Severity    float64   `json:"severity"`
	Software    string    `json:"software"`
	Published   time.Time `json:"published"`
}

// SeverityLabel buckets a CVSS score.
func (v Vulnerability) SeverityLabel() string {
	switch {
	case v.Severity >= 9:
		return "Critical"
	case v.Severity >= 7:
		return "High"
	case v.Severity >= 4:
		return "Medium"
	case v.Severity > 0:
		return "Low"
	default:
		return "None"
	}
}

// Software is a program installed on a Host.
type Software struct {
	Name        string
	Version     SoftwareVersion
	Category    SoftwareCategory
	InstallPath string
	Ports       []int
	Running     bool
	ReleaseDate time.Time

	vulnerabilities []Vulnerability
	populated       bool
}

// NewSoftware creates running software with an install path derived from its category.
func NewSoftware(name string, version SoftwareVersion, category SoftwareCategory, released time.Time) *Software {
	return &Software{
		Name:        name,
		Version:     version,
		Category:    category,
		InstallPath: InstallPathFor(name, category),
		Running:     true,
		ReleaseDate: released,
	}
}

// InstallPathFor maps a category to its conventional binary location.
func InstallPathFor(name string, category SoftwareCategory) string {
	lower := strings.ToLower(name)
	switch category {
	case CategoryWebServer:
		return "/usr/sbin/" + lower
	case CategoryDatabase:
		return "/opt/" + lower
	default:
		return "/usr/bin/" + lower
	}
}

// AddPort registers a listening port once.
func (s *Software) AddPort(port int) {
	if !slices.Contains(s.Ports, port) {
		s.Ports = append(s.Ports, port)
	}
}

func (s *Software) ListensOn(port int) bool {
	return slices.Contains(s.Ports, port)
}

func (s *Software) AgeDays(now time.Time) int {
	return int(now.Sub(s.ReleaseDate).Hours() / 24)
}

func (s *Software) Vulnerabilities() []Vulnerability {
	return slices.Clone(s.vulnerabilities)
}

func (s *Software) HasVulnerability() bool {
	return len(s.vulnerabilities) > 0
}

// HasCVE reports whether the software carries the given CVE id.
func (s *Software) HasCVE(cve string) bool {
	return slices.ContainsFunc(s.vulnerabilities, func(v Vulnerability) bool {
		return strings.EqualFold(v.CVE, cve)
	})
}

// VulnerabilitiesPopulated reports whether AssignVulnerabilities already ran.
func (s *Software) VulnerabilitiesPopulated() bool {
	return s.populated
}

// AssignVulnerabilities sets the vulnerability list. It only takes effect once.
func (s *Software) AssignVulnerabilities(vulns []Vulnerability) bool {
	if s.populated {
		return false
	}
	s.vulnerabilities = slices.Clone(vulns)
	s.populated = true
	return true
}

func (s *Software) String() string {
	return fmt.Sprintf("%s v%s", s.Name, s.Version)
}

// VulnerabilityProbability is the base chance that software of the given age is vulnerable.
func VulnerabilityProbability(ageDays int) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Min(0.9, float64(ageDays)/1000*0.1)
}

// VulnerabilityEntry is a catalog row: a vulnerability plus the version range
// [Introduced, Fixed) of the product it affects. A zero Fixed means unpatched.
type VulnerabilityEntry struct {
	Vulnerability
	Introduced SoftwareVersion `json:"introduced"`
	Fixed      SoftwareVersion `json:"fixed"`
}

// Affects reports whether version v falls inside the vulnerable range.
func (e VulnerabilityEntry) Affects(v SoftwareVersion) bool {
	if v.Less(e.Introduced) {
		return false
	}
	if e.Fixed == (SoftwareVersion{}) {
		return true
	}
	return v.Less(e.Fixed)
}
