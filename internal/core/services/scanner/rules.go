package scanner

import (
	"encoding/json"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// Category groups the file locations a rule understands.
type Category string

const (
	CategoryEmail         Category = "email"
	CategoryBrowser       Category = "browser"
	CategoryConfiguration Category = "configuration"
	CategoryDocument      Category = "document"
	CategoryLog           Category = "log"
	CategorySSHKey        Category = "sshkey"
)

// File is one scanned file.
type File struct {
	Path     string
	Content  string
	Category Category
	// Tree is the filesystem the file belongs to, for reading siblings.
	Tree *domain.FileTree
}

// Findings is what a rule or detector extracted from a file.
type Findings struct {
	Credentials []domain.Credential
	Clues       []domain.DiscoveryClue
}

func (f *Findings) merge(o Findings) {
	f.Credentials = append(f.Credentials, o.Credentials...)
	f.Clues = append(f.Clues, o.Clues...)
}

// Rule extracts credentials from files of the categories it applies to.
type Rule interface {
	Name() string
	Applies(c Category) bool
	Extract(f File) Findings
}

// OpenVPNRule reads client profiles. The remote line gives the server; the
// comment block left by administrators may give the account.
type OpenVPNRule struct{}

var (
	reRemote      = regexp.MustCompile(`(?im)^\s*remote\s+(\S+)\s+(\d+)`)
	reProto       = regexp.MustCompile(`(?im)^\s*proto\s+(\S+)`)
	reCommentUser = regexp.MustCompile(`(?im)^#\s*Username:\s*(\S+)`)
	reCommentPass = regexp.MustCompile(`(?im)^#\s*Password:\s*(\S+)`)
	reCommentID   = regexp.MustCompile(`(?im)^#\s*Network ID:\s*(\S+)`)
	reCommentName = regexp.MustCompile(`(?im)^#\s*Network Name:\s*(.+)$`)
)

func (r *OpenVPNRule) Name() string { return "OpenVPN Config" }

func (r *OpenVPNRule) Applies(c Category) bool { return c == CategoryConfiguration }

func (r *OpenVPNRule) Extract(f File) Findings {
	var out Findings
	networkID := firstGroup(reCommentID, f.Content)
	if networkID == "" {
		networkID = networkIDFromPath(f.Path)
	}
	name := firstGroup(reCommentName, f.Content)
	user := firstGroup(reCommentUser, f.Content)
	pass := firstGroup(reCommentPass, f.Content)

	for _, m := range reRemote.FindAllStringSubmatch(f.Content, -1) {
		port, _ := strconv.Atoi(m[2])
		out.Credentials = append(out.Credentials, domain.VPNCredential{
			NetworkID:   networkID,
			NetworkName: name,
			Username:    user,
			Password:    pass,
			Server:      m[1],
			Protocol:    "OpenVPN",
			Port:        port,
		})
		clue := domain.NewDiscoveryClue(networkID, domain.KindVPNConfiguration, "", f.Path)
		clue.Properties[domain.PropServerAddress] = m[1]
		if name != "" {
			clue.Properties[domain.PropNetworkName] = name
		}
		if proto := firstGroup(reProto, f.Content); proto != "" {
			clue.Properties["Protocol"] = proto
		}
		out.Clues = append(out.Clues, clue)
	}
	return out
}

func networkIDFromPath(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ReplaceAll(strings.ToLower(base), " ", "_")
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// EmailVPNRule reads VPN account details out of mail bodies. A mail may
// describe several accounts, one block each.
type EmailVPNRule struct{}

var (
	reMailVPN  = regexp.MustCompile(`(?i)\bvpn\b`)
	reMailFrom = regexp.MustCompile(`(?im)^From:\s*(.+)$`)
)

func (r *EmailVPNRule) Name() string { return "Email VPN Credentials" }

func (r *EmailVPNRule) Applies(c Category) bool { return c == CategoryEmail }

func (r *EmailVPNRule) Extract(f File) Findings {
	var out Findings
	if !reMailVPN.MatchString(f.Content) {
		return out
	}
	from := firstGroup(reMailFrom, f.Content)

	for _, block := range strings.Split(strings.ReplaceAll(f.Content, "\r\n", "\n"), "\n\n") {
		fields := parseFields(block)
		if fields["server"] == "" || fields["username"] == "" || fields["password"] == "" {
			continue
		}
		networkID := fields["network id"]
		if networkID == "" {
			networkID = domain.UnknownNetwork
		}
		protocol := fields["protocol"]
		if protocol == "" {
			protocol = "OpenVPN"
		}
		out.Credentials = append(out.Credentials, domain.VPNCredential{
			NetworkID:   networkID,
			NetworkName: fields["network"],
			Username:    fields["username"],
			Password:    fields["password"],
			Server:      fields["server"],
			Protocol:    protocol,
		})

		clue := domain.NewDiscoveryClue(networkID, domain.KindEmailReference, "", f.Path)
		clue.Properties[domain.PropServerAddress] = fields["server"]
		if fields["network"] != "" {
			clue.Properties[domain.PropNetworkName] = fields["network"]
		}
		if from != "" {
			clue.Properties[domain.PropContactInfo] = from
		}
		out.Clues = append(out.Clues, clue)
	}
	return out
}

// parseFields reads "Key: value" lines into a map with lower-cased keys.
func parseFields(block string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return fields
}

// SSHConnectionRule picks up "ssh user@host" command lines anywhere.
type SSHConnectionRule struct{}

var reSSHCommand = regexp.MustCompile(`(?i)\bssh\s+([A-Za-z0-9._-]+)@([A-Za-z0-9.-]+[A-Za-z0-9])`)

func (r *SSHConnectionRule) Name() string { return "SSH Connection" }

func (r *SSHConnectionRule) Applies(Category) bool { return true }

func (r *SSHConnectionRule) Extract(f File) Findings {
	var out Findings
	for _, m := range reSSHCommand.FindAllStringSubmatch(f.Content, -1) {
		out.Credentials = append(out.Credentials, domain.SSHCredential{
			Username: m[1],
			Host:     m[2],
			Port:     domain.DefaultSSHPort,
		})
	}
	return out
}

// BrowserLoginsRule decodes Firefox style logins.json stores.
type BrowserLoginsRule struct{}

func (r *BrowserLoginsRule) Name() string { return "Browser Logins" }

func (r *BrowserLoginsRule) Applies(c Category) bool { return c == CategoryBrowser }

func (r *BrowserLoginsRule) Extract(f File) Findings {
	var out Findings
	var doc struct {
		Logins []struct {
			URL      string `json:"url"`
			Hostname string `json:"hostname"`
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"logins"`
	}
	if err := json.Unmarshal([]byte(f.Content), &doc); err != nil {
		return out
	}
	for _, l := range doc.Logins {
		url := l.URL
		if url == "" {
			url = l.Hostname
		}
		out.Credentials = append(out.Credentials, domain.WebCredential{
			URL:      url,
			Username: l.Username,
			Password: l.Password,
		})
		clue := domain.NewDiscoveryClue(domain.UnknownNetwork, domain.KindBrowserBookmark, "", f.Path)
		clue.Properties["URL"] = url
		if host := urlHost(url); host != "" {
			clue.Properties[domain.PropDomainName] = host
		}
		clue.Reliability = 70
		out.Clues = append(out.Clues, clue)
	}
	return out
}

func urlHost(u string) string {
	if _, rest, ok := strings.Cut(u, "://"); ok {
		u = rest
	}
	host, _, _ := strings.Cut(u, "/")
	host, _, _ = strings.Cut(host, ":")
	return host
}

// DatabaseURLRule finds database connection strings.
type DatabaseURLRule struct{}

var reDatabaseURL = regexp.MustCompile(`(?i)\b(mysql|postgres(?:ql)?|mongodb)://([^:\s/]+):([^@\s]+)@([A-Za-z0-9.-]+)(?::(\d+))?(?:/(\w+))?`)

func (r *DatabaseURLRule) Name() string { return "Database Connection String" }

func (r *DatabaseURLRule) Applies(c Category) bool {
	return c == CategoryConfiguration || c == CategoryDocument || c == CategoryLog
}

func (r *DatabaseURLRule) Extract(f File) Findings {
	var out Findings
	for _, m := range reDatabaseURL.FindAllStringSubmatch(f.Content, -1) {
		port, _ := strconv.Atoi(m[5])
		out.Credentials = append(out.Credentials, domain.DatabaseCredential{
			Username: m[2],
			Password: m[3],
			Server:   m[4],
			Port:     port,
			Database: m[6],
		})
	}
	return out
}

// APIKeyRule finds API keys next to the endpoint they belong to.
type APIKeyRule struct{}

var (
	reAPIKey = regexp.MustCompile(`(?i)\bapi[_-]?(?:key|token)\s*[:=]\s*["']?([A-Za-z0-9_\-]{16,})`)
	reAPIURL = regexp.MustCompile(`(?i)\b(?:api[_-]?url|endpoint|base[_-]?url)\s*[:=]\s*["']?(https?://[^\s"']+)`)
)

func (r *APIKeyRule) Name() string { return "API Key" }

func (r *APIKeyRule) Applies(c Category) bool {
	return c == CategoryConfiguration || c == CategoryDocument
}

func (r *APIKeyRule) Extract(f File) Findings {
	var out Findings
	base := firstGroup(reAPIURL, f.Content)
	for _, m := range reAPIKey.FindAllStringSubmatch(f.Content, -1) {
		out.Credentials = append(out.Credentials, domain.APICredential{BaseURL: base, Key: m[1]})
	}
	return out
}

// SSHKeyRule turns private key files into key credentials. The target is
// taken from the public key comment, or failing that from the file name.
type SSHKeyRule struct{}

func (r *SSHKeyRule) Name() string { return "SSH Private Key" }

func (r *SSHKeyRule) Applies(c Category) bool { return c == CategorySSHKey }

func (r *SSHKeyRule) Extract(f File) Findings {
	var out Findings
	if !strings.Contains(f.Content, "PRIVATE KEY") {
		return out
	}
	cred := domain.SSHCredential{PrivateKey: f.Content, Port: domain.DefaultSSHPort}
	if f.Tree != nil {
		if pub, err := f.Tree.ReadFile(f.Path + ".pub"); err == nil {
			fields := strings.Fields(pub)
			if len(fields) >= 3 {
				user, host, ok := strings.Cut(fields[2], "@")
				if ok {
					cred.Username, cred.Host = user, host
				}
			}
		}
	}
	if cred.Host == "" {
		cred.Host = hostFromKeyName(path.Base(f.Path))
	}
	if cred.Username == "" {
		cred.Username = ownerFromPath(f.Path)
	}
	out.Credentials = append(out.Credentials, cred)
	return out
}

var standardKeyNames = map[string]bool{"id_rsa": true, "id_dsa": true, "id_ecdsa": true, "id_ed25519": true}

func hostFromKeyName(name string) string {
	if standardKeyNames[name] || !strings.HasPrefix(name, "id_") {
		return ""
	}
	return strings.ReplaceAll(strings.TrimPrefix(name, "id_"), "_", ".")
}

// ownerFromPath guesses the key owner from /home/<user>/.ssh or /root/.ssh.
func ownerFromPath(p string) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(parts) >= 2 && parts[0] == "home" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] == "root" {
		return "root"
	}
	return ""
}

// DefaultRules is the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		&OpenVPNRule{},
		&EmailVPNRule{},
		&SSHConnectionRule{},
		&BrowserLoginsRule{},
		&DatabaseURLRule{},
		&APIKeyRule{},
		&SSHKeyRule{},
	}
}
