package domain

import (
	"fmt"
	"time"
)

// CredentialType tags the credential variants.
type CredentialType string

const (
	CredentialVPN         CredentialType = "vpn"
	CredentialSSH         CredentialType = "ssh"
	CredentialWeb         CredentialType = "web"
	CredentialDatabase    CredentialType = "database"
	CredentialCertificate CredentialType = "certificate"
	CredentialAPI         CredentialType = "api"
)

const (
	DefaultVPNPort = 1194
	DefaultSSHPort = 22
)

// Credential is any secret the player can collect.
type Credential interface {
	Type() CredentialType
	IsValid() bool
	Display() string
}

// Provenance records where a credential was found.
type Provenance struct {
	ID           string    `json:"id"`
	SourceHost   string    `json:"source_host,omitempty"`
	SourceFile   string    `json:"source_file,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type VPNCredential struct {
	Provenance
	NetworkID   string `json:"network_id"`
	NetworkName string `json:"network_name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Server      string `json:"server"`
	Protocol    string `json:"protocol"`
	Port        int    `json:"port"`
}

func (c VPNCredential) Type() CredentialType { return CredentialVPN }

func (c VPNCredential) IsValid() bool {
	return c.Username != "" && c.Password != "" && c.Server != "" && c.NetworkID != ""
}

func (c VPNCredential) Display() string {
	name := c.NetworkName
	if name == "" {
		name = c.NetworkID
	}
	return fmt.Sprintf("VPN: %s (%s@%s)", name, c.Username, c.Server)
}

// EffectivePort falls back to the OpenVPN default.
func (c VPNCredential) EffectivePort() int {
	if c.Port == 0 {
		return DefaultVPNPort
	}
	return c.Port
}

type SSHCredential struct {
	Provenance
	Host       string `json:"host"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Port       int    `json:"port"`
}

func (c SSHCredential) Type() CredentialType { return CredentialSSH }

func (c SSHCredential) IsValid() bool {
	return c.Host != "" && c.Username != "" && (c.Password != "" || c.PrivateKey != "")
}

func (c SSHCredential) Display() string {
	auth := "password"
	if c.PrivateKey != "" {
		auth = "key"
	}
	return fmt.Sprintf("SSH: %s@%s (%s)", c.Username, c.Host, auth)
}

type WebCredential struct {
	Provenance
	URL      string            `json:"url"`
	Username string            `json:"username"`
	Password string            `json:"password"`
	Cookies  map[string]string `json:"cookies,omitempty"`
}

func (c WebCredential) Type() CredentialType { return CredentialWeb }

func (c WebCredential) IsValid() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

func (c WebCredential) Display() string {
	return fmt.Sprintf("Web: %s (%s)", c.URL, c.Username)
}

type DatabaseCredential struct {
	Provenance
	Server   string `json:"server"`
	Database string `json:"database,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
	Port     int    `json:"port,omitempty"`
}

func (c DatabaseCredential) Type() CredentialType { return CredentialDatabase }

func (c DatabaseCredential) IsValid() bool {
	return c.Server != "" && c.Username != "" && c.Password != ""
}

func (c DatabaseCredential) Display() string {
	return fmt.Sprintf("Database: %s@%s/%s", c.Username, c.Server, c.Database)
}

type CertificateCredential struct {
	Provenance
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer,omitempty"`
	Data      string    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c CertificateCredential) Type() CredentialType { return CredentialCertificate }

func (c CertificateCredential) IsValid() bool {
	return c.Data != "" && c.ExpiresAt.After(time.Now())
}

func (c CertificateCredential) Display() string {
	return fmt.Sprintf("Certificate: %s (expires %s)", c.Subject, c.ExpiresAt.Format("2006-01-02"))
}

type APICredential struct {
	Provenance
	BaseURL string `json:"base_url"`
	Key     string `json:"key,omitempty"`
	Token   string `json:"token,omitempty"`
}

func (c APICredential) Type() CredentialType { return CredentialAPI }

func (c APICredential) IsValid() bool {
	return c.BaseURL != "" && (c.Key != "" || c.Token != "")
}

func (c APICredential) Display() string {
	secret := c.Key
	if secret == "" {
		secret = c.Token
	}
	if len(secret) > 8 {
		secret = secret[:8] + "..."
	}
	return fmt.Sprintf("API: %s (%s)", c.BaseURL, secret)
}

// NetworkCredentials bundles everything known for one network. There is a
// single VPN slot; newer VPN credentials replace older ones.
type NetworkCredentials struct {
	NetworkID    string                  `json:"network_id"`
	VPN          *VPNCredential          `json:"vpn,omitempty"`
	SSH          []SSHCredential         `json:"ssh,omitempty"`
	Web          []WebCredential         `json:"web,omitempty"`
	Database     []DatabaseCredential    `json:"database,omitempty"`
	Certificates []CertificateCredential `json:"certificates,omitempty"`
	API          []APICredential         `json:"api,omitempty"`
}

// Add files a credential in its slot. Invalid credentials are ignored.
func (n *NetworkCredentials) Add(c Credential) bool {
	if c == nil || !c.IsValid() {
		return false
	}
	switch v := c.(type) {
	case VPNCredential:
		n.VPN = &v
	case *VPNCredential:
		cp := *v
		n.VPN = &cp
	case SSHCredential:
		for _, existing := range n.SSH {
			if existing.Host == v.Host && existing.Username == v.Username {
				return false
			}
		}
		n.SSH = append(n.SSH, v)
	case WebCredential:
		n.Web = append(n.Web, v)
	case DatabaseCredential:
		n.Database = append(n.Database, v)
	case CertificateCredential:
		n.Certificates = append(n.Certificates, v)
	case APICredential:
		n.API = append(n.API, v)
	default:
		return false
	}
	return true
}

// Merge adds every valid credential of other.
func (n *NetworkCredentials) Merge(other NetworkCredentials) {
	for _, c := range other.All() {
		n.Add(c)
	}
}

// All lists every credential, VPN first.
func (n NetworkCredentials) All() []Credential {
	var out []Credential
	if n.VPN != nil {
		out = append(out, *n.VPN)
	}
	for _, c := range n.SSH {
		out = append(out, c)
	}
	for _, c := range n.Web {
		out = append(out, c)
	}
	for _, c := range n.Database {
		out = append(out, c)
	}
	for _, c := range n.Certificates {
		out = append(out, c)
	}
	for _, c := range n.API {
		out = append(out, c)
	}
	return out
}

func (n NetworkCredentials) Count() int {
	return len(n.All())
}
