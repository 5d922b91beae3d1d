package filesystem

import (
	"crypto/ed25519"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"golang.org/x/crypto/ssh"
)

// Locations of planted discovery artifacts.
const (
	VPNMailPath       = "/home/user/Mail/inbox/vpn_setup.eml"
	BrowserLoginsPath = "/home/user/.mozilla/firefox/profiles/default/logins.json"
	OpenVPNDir        = "/etc/openvpn"
	SSHDir            = "/home/user/.ssh"
)

// PlantDiscoveryFiles leaves traces of the given credentials on a host: a mail
// with VPN details, saved browser logins, OpenVPN profiles and SSH key pairs.
func PlantDiscoveryFiles(tree *domain.FileTree, bundles []domain.NetworkCredentials, rng *rand.Rand, now time.Time) error {
	var vpns []domain.VPNCredential
	var webs []domain.WebCredential
	var keys []domain.SSHCredential
	for _, b := range bundles {
		if b.VPN != nil && b.VPN.IsValid() {
			vpns = append(vpns, *b.VPN)
		}
		webs = append(webs, b.Web...)
		for _, s := range b.SSH {
			if s.PrivateKey != "" {
				keys = append(keys, s)
			}
		}
	}

	if len(vpns) > 0 {
		if _, err := tree.WriteFile(VPNMailPath, vpnMail(vpns, rng, now)); err != nil {
			return err
		}
		for _, v := range vpns {
			if _, err := tree.WriteFile(fmt.Sprintf("%s/%s.ovpn", OpenVPNDir, v.NetworkID), OpenVPNProfile(v)); err != nil {
				return err
			}
		}
	}

	if len(webs) > 0 {
		logins, err := browserLogins(webs, rng, now)
		if err != nil {
			return err
		}
		if _, err := tree.WriteFile(BrowserLoginsPath, logins); err != nil {
			return err
		}
	}

	for _, k := range keys {
		name := KeyFileName(k.Host)
		if _, err := tree.WriteFile(SSHDir+"/"+name, k.PrivateKey); err != nil {
			return err
		}
		pub, err := PublicKeyLine(k.PrivateKey, k.Username+"@"+k.Host)
		if err != nil {
			return err
		}
		if _, err := tree.WriteFile(SSHDir+"/"+name+".pub", pub); err != nil {
			return err
		}
	}
	return nil
}

// KeyFileName is the private key file name used for a target host.
func KeyFileName(host string) string {
	return "id_" + strings.ReplaceAll(host, ".", "_")
}

func vpnMail(vpns []domain.VPNCredential, rng *rand.Rand, now time.Time) string {
	var b strings.Builder
	b.WriteString("From: it-admin@company.com\n")
	b.WriteString("To: user@company.com\n")
	b.WriteString("Subject: VPN Access Configuration\n")
	fmt.Fprintf(&b, "Date: %s\n\n", now.AddDate(0, 0, -(1+rng.Intn(29))).Format(time.RFC1123Z))
	b.WriteString("Hi,\n\nAs requested, here are your VPN connection details:\n\n")
	for _, v := range vpns {
		fmt.Fprintf(&b, "Network: %s\n", v.NetworkName)
		fmt.Fprintf(&b, "Network ID: %s\n", v.NetworkID)
		fmt.Fprintf(&b, "Server: %s\n", v.Server)
		fmt.Fprintf(&b, "Username: %s\n", v.Username)
		fmt.Fprintf(&b, "Password: %s\n", v.Password)
		fmt.Fprintf(&b, "Protocol: %s\n\n", v.Protocol)
	}
	b.WriteString("Please keep this information secure.\nIT Department\n")
	return b.String()
}

type browserLogin struct {
	URL          string `json:"url"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	TimeCreated  string `json:"timeCreated"`
	TimeLastUsed string `json:"timeLastUsed"`
	TimesUsed    int    `json:"timesUsed"`
}

func browserLogins(webs []domain.WebCredential, rng *rand.Rand, now time.Time) (string, error) {
	doc := struct {
		Logins  []browserLogin `json:"logins"`
		Version int            `json:"version"`
	}{Version: 3}
	for _, w := range webs {
		doc.Logins = append(doc.Logins, browserLogin{
			URL:          w.URL,
			Username:     w.Username,
			Password:     w.Password,
			TimeCreated:  now.AddDate(0, 0, -(1 + rng.Intn(89))).Format(time.RFC3339),
			TimeLastUsed: now.AddDate(0, 0, -rng.Intn(30)).Format(time.RFC3339),
			TimesUsed:    1 + rng.Intn(49),
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode browser logins: %w", err)
	}
	return string(data) + "\n", nil
}

// OpenVPNProfile renders a client profile with the credentials left in comments.
func OpenVPNProfile(v domain.VPNCredential) string {
	proto := strings.ToLower(v.Protocol)
	if proto == "" || proto == "openvpn" {
		proto = "udp"
	}
	var b strings.Builder
	b.WriteString("client\ndev tun\n")
	fmt.Fprintf(&b, "proto %s\n", proto)
	fmt.Fprintf(&b, "remote %s %d\n", v.Server, v.EffectivePort())
	b.WriteString("resolv-retry infinite\nnobind\npersist-key\npersist-tun\n")
	b.WriteString("remote-cert-tls server\ncipher AES-256-CBC\nverb 3\n\n")
	b.WriteString("# Authentication\nauth-user-pass\n")
	fmt.Fprintf(&b, "# Username: %s\n", v.Username)
	fmt.Fprintf(&b, "# Password: %s\n\n", v.Password)
	b.WriteString("# Network settings\n")
	fmt.Fprintf(&b, "# Network ID: %s\n", v.NetworkID)
	fmt.Fprintf(&b, "# Network Name: %s\n", v.NetworkName)
	return b.String()
}

// GenerateKeyPair derives an ed25519 key pair from rng and returns the
// OpenSSH private key PEM and the authorized_keys line.
func GenerateKeyPair(rng *rand.Rand, comment string) (string, string, error) {
	seed := make([]byte, ed25519.SeedSize)
	rng.Read(seed)
	priv := ed25519.NewKeyFromSeed(seed)

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	privPEM := string(pem.EncodeToMemory(block))

	pub, err := PublicKeyLine(privPEM, comment)
	if err != nil {
		return "", "", err
	}
	return privPEM, pub, nil
}

// PublicKeyLine parses a private key PEM and renders the matching
// authorized_keys line.
func PublicKeyLine(privatePEM, comment string) (string, error) {
	signer, err := ssh.ParsePrivateKey([]byte(privatePEM))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey())))
	if comment != "" {
		line += " " + comment
	}
	return line + "\n", nil
}
