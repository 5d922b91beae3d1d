package scanner

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// Location is a path glob scanned as one category.
type Location struct {
	Pattern  string
	Category Category
}

// DefaultLocations lists where credentials are usually left behind.
func DefaultLocations() []Location {
	loc := func(c Category, patterns ...string) []Location {
		out := make([]Location, len(patterns))
		for i, p := range patterns {
			out[i] = Location{Pattern: p, Category: c}
		}
		return out
	}
	var all []Location
	all = append(all, loc(CategoryEmail,
		"/home/*/Mail/inbox/*",
		"/home/*/Maildir/cur/*",
		"/var/mail/*",
		"/home/*/.thunderbird/*/ImapMail/*/*",
	)...)
	all = append(all, loc(CategoryBrowser,
		"/home/*/.mozilla/firefox/**/logins.json",
		"/home/*/.config/google-chrome/Default/Login Data",
		"/home/*/.config/chromium/Default/Login Data",
	)...)
	all = append(all, loc(CategoryConfiguration,
		"/etc/openvpn/*.conf",
		"/etc/openvpn/*.ovpn",
		"/home/*/.ssh/config",
		"/etc/network/interfaces",
		"/etc/netplan/*.yaml",
		"/etc/NetworkManager/system-connections/*",
	)...)
	all = append(all, loc(CategoryDocument,
		"/home/*/Documents/*.txt",
		"/home/*/Documents/*.doc*",
		"/home/*/Desktop/*.txt",
		"/shares/*/IT/*",
		"/var/www/html/admin/*",
	)...)
	all = append(all, loc(CategoryLog,
		"/var/log/auth.log",
		"/var/log/syslog",
		"/var/log/messages",
		"/var/log/vpn.log",
	)...)
	all = append(all, loc(CategorySSHKey,
		"/home/*/.ssh/id_*",
		"/root/.ssh/id_*",
	)...)
	return all
}

var vpnSoftware = []string{"openvpn", "wireguard", "strongswan", "cisco", "forticlient"}

// Scanner searches a host's filesystem for credentials and network clues.
// It only reads from the host.
type Scanner struct {
	locations []Location
	rules     []Rule
	detectors []Detector
	now       func() time.Time
}

func NewScanner(now func() time.Time) *Scanner {
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		locations: DefaultLocations(),
		rules:     DefaultRules(),
		detectors: DefaultDetectors(),
		now:       now,
	}
}

// AddRule registers an extra extraction rule.
func (s *Scanner) AddRule(r Rule) {
	s.rules = append(s.rules, r)
}

// AddDetector registers an extra clue detector.
func (s *Scanner) AddDetector(d Detector) {
	s.detectors = append(s.detectors, d)
}

// Scan walks every location of host and returns what was found.
func (s *Scanner) Scan(host *domain.Host) domain.ScanResults {
	results := domain.ScanResults{Host: host.Hostname}
	var found Findings
	visited := make(map[string]bool)

	for _, loc := range s.locations {
		nodes, err := host.FS.GlobPaths(loc.Pattern)
		if err != nil {
			slog.Warn("Scan pattern failed", "host", host.Hostname, "pattern", loc.Pattern, "error", err)
			continue
		}
		for _, n := range nodes {
			p := n.Path()
			if n.IsDir || visited[p] {
				continue
			}
			if loc.Category == CategorySSHKey && strings.HasSuffix(p, ".pub") {
				continue
			}
			visited[p] = true
			results.ScannedFiles++
			found.merge(s.scanFile(File{Path: p, Content: n.Content, Category: loc.Category, Tree: host.FS}))
		}
	}
	found.merge(s.scanSoftware(host))

	now := s.now()
	results.Credentials = s.finishCredentials(found.Credentials, host.Hostname, now)
	results.Clues = s.finishClues(found.Clues, host.Hostname, now)

	slog.Info("Credential scan finished", "host", host.Hostname, "files", results.ScannedFiles,
		"credentials", len(results.Credentials), "clues", len(results.Clues))
	return results
}

func (s *Scanner) scanFile(f File) Findings {
	var out Findings
	for _, r := range s.rules {
		if !r.Applies(f.Category) {
			continue
		}
		found := r.Extract(f)
		for _, c := range found.Credentials {
			out.Credentials = append(out.Credentials, withProvenance(c, func(p *domain.Provenance) {
				p.SourceFile = f.Path
			}))
		}
		out.Clues = append(out.Clues, found.Clues...)
	}
	for _, d := range s.detectors {
		out.Clues = append(out.Clues, d.Detect(f)...)
	}
	return out
}

func (s *Scanner) scanSoftware(host *domain.Host) Findings {
	var out Findings
	for _, sw := range host.Software() {
		name := strings.ToLower(sw.Name)
		for _, v := range vpnSoftware {
			if !strings.Contains(name, v) {
				continue
			}
			c := domain.NewDiscoveryClue(domain.UnknownNetwork, domain.KindVPNConfiguration, "", sw.InstallPath)
			c.Properties[domain.PropSoftware] = sw.Name
			c.Properties["Version"] = sw.Version.String()
			c.Properties[domain.PropIPAddress] = host.IP
			out.Clues = append(out.Clues, c)
			break
		}
	}
	return out
}

func (s *Scanner) finishCredentials(creds []domain.Credential, host string, now time.Time) []domain.Credential {
	seen := make(map[string]bool)
	out := make([]domain.Credential, 0, len(creds))
	for _, c := range creds {
		key := credentialKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		c = withProvenance(c, func(p *domain.Provenance) {
			p.ID = uuid.New().String()
			p.SourceHost = host
			p.DiscoveredAt = now
		})
		telemetry.CredentialsFound.WithLabelValues(string(c.Type())).Inc()
		out = append(out, c)
	}
	return out
}

func credentialKey(c domain.Credential) string {
	switch v := c.(type) {
	case domain.VPNCredential:
		return strings.Join([]string{"vpn", v.NetworkID, v.Server, v.Username, v.Password}, "|")
	case domain.SSHCredential:
		auth := "none"
		switch {
		case v.PrivateKey != "":
			auth = "key"
		case v.Password != "":
			auth = "password"
		}
		return strings.Join([]string{"ssh", v.Host, v.Username, auth}, "|")
	default:
		return string(c.Type()) + "|" + c.Display()
	}
}

// withProvenance applies fn to the provenance embedded in c.
func withProvenance(c domain.Credential, fn func(*domain.Provenance)) domain.Credential {
	switch v := c.(type) {
	case domain.VPNCredential:
		fn(&v.Provenance)
		return v
	case domain.SSHCredential:
		fn(&v.Provenance)
		return v
	case domain.WebCredential:
		fn(&v.Provenance)
		return v
	case domain.DatabaseCredential:
		fn(&v.Provenance)
		return v
	case domain.CertificateCredential:
		fn(&v.Provenance)
		return v
	case domain.APICredential:
		fn(&v.Provenance)
		return v
	}
	return c
}

func (s *Scanner) finishClues(clues []domain.DiscoveryClue, host string, now time.Time) []domain.DiscoveryClue {
	seen := make(map[string]bool)
	out := make([]domain.DiscoveryClue, 0, len(clues))
	for _, c := range clues {
		fp := c.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		c.ID = uuid.New().String()
		c.SourceHost = host
		c.DiscoveredAt = now
		out = append(out, c)
	}
	return out
}
