package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SecurityLevel ranks how well maintained a host or network is.
type SecurityLevel int

const (
	SecurityVeryLow SecurityLevel = iota
	SecurityLow
	SecurityMedium
	SecurityHigh
	SecurityVeryHigh
)

var securityLevelNames = [...]string{"VeryLow", "Low", "Medium", "High", "VeryHigh"}

func (l SecurityLevel) String() string {
	if l < SecurityVeryLow || l > SecurityVeryHigh {
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
	return securityLevelNames[l]
}

// ParseSecurityLevel accepts the level names case-insensitively.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	for i, name := range securityLevelNames {
		if strings.EqualFold(s, name) {
			return SecurityLevel(i), nil
		}
	}
	return SecurityMedium, fmt.Errorf("%w: %q", ErrInvalidSecurityLevel, s)
}

func (l SecurityLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *SecurityLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseSecurityLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// VulnerabilityModifier scales the base vulnerability probability.
func (l SecurityLevel) VulnerabilityModifier() float64 {
	switch l {
	case SecurityVeryLow:
		return 2.0
	case SecurityLow:
		return 1.5
	case SecurityHigh:
		return 0.5
	case SecurityVeryHigh:
		return 0.25
	default:
		return 1.0
	}
}

// AgeRange is the span, in days, a host of this level has been running.
// Poorly maintained systems are older and so run older software.
func (l SecurityLevel) AgeRange() (minDays, maxDays int) {
	switch l {
	case SecurityVeryLow:
		return 1500, 3000
	case SecurityLow:
		return 900, 1800
	case SecurityHigh:
		return 100, 500
	case SecurityVeryHigh:
		return 10, 200
	default:
		return 400, 1000
	}
}

// TimeWindow is a span of the day, measured from midnight.
type TimeWindow struct {
	Start time.Duration `yaml:"start"`
	End   time.Duration `yaml:"end"`
}

// Contains reports whether the time of day of t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	return offset >= w.Start && offset < w.End
}

// SecurityProfile describes the defensive features of a network.
type SecurityProfile struct {
	Level             SecurityLevel `yaml:"level"`
	RequiresVPN       bool          `yaml:"requires_vpn"`
	Firewall          bool          `yaml:"firewall"`
	Segmentation      bool          `yaml:"segmentation"`
	MFA               bool          `yaml:"mfa"`
	IDS               bool          `yaml:"ids"`
	Encryption        bool          `yaml:"encryption"`
	ClientCertificate bool          `yaml:"client_certificate"`
	AccessLogs        bool          `yaml:"access_logs"`

	AllowedSources []string     `yaml:"allowed_sources"`
	BlockedSources []string     `yaml:"blocked_sources"`
	AccessWindows  []TimeWindow `yaml:"access_windows"`
}

// DefaultSecurityProfile is a medium security network behind a firewall.
func DefaultSecurityProfile() SecurityProfile {
	return SecurityProfile{
		Level:      SecurityMedium,
		Firewall:   true,
		AccessLogs: true,
	}
}

// Score is a weighted sum of the enabled features, capped at 100.
func (p SecurityProfile) Score() int {
	score := int(p.Level) * 10
	features := []struct {
		on     bool
		weight int
	}{
		{p.RequiresVPN, 15},
		{p.Firewall, 10},
		{p.Segmentation, 15},
		{p.MFA, 20},
		{p.IDS, 15},
		{p.Encryption, 10},
		{p.ClientCertificate, 15},
	}
	for _, f := range features {
		if f.on {
			score += f.weight
		}
	}
	return min(score, 100)
}

// IsAccessAllowed checks source filtering and access windows.
func (p SecurityProfile) IsAccessAllowed(source string, at time.Time) bool {
	if slices.Contains(p.BlockedSources, source) {
		return false
	}
	if len(p.AllowedSources) > 0 && !slices.Contains(p.AllowedSources, source) {
		return false
	}
	windows := p.AccessWindows
	if len(windows) == 0 {
		windows = []TimeWindow{{Start: 0, End: 24 * time.Hour}}
	}
	for _, w := range windows {
		if w.Contains(at) {
			return true
		}
	}
	return false
}
