package filesystem

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewDefaultTree(t *testing.T) {
	tree := NewDefaultTree(LocalHostname, now)

	assert.Equal(t, "/home/user", tree.CurrentPath())
	for _, dir := range []string{"/bin", "/etc", "/home/user/projects", "/usr/bin", "/usr/lib", "/var/log", "/tmp"} {
		n, err := tree.Resolve(dir)
		require.NoError(t, err, dir)
		assert.True(t, n.IsDir, dir)
	}

	hostname, err := tree.ReadFile("/etc/hostname")
	require.NoError(t, err)
	assert.Equal(t, "sampleos", hostname)

	ls, err := tree.ReadFile("/bin/ls")
	require.NoError(t, err)
	assert.Equal(t, "[BINARY CONTENT]", ls)

	log, err := tree.ReadFile("/var/log/system.log")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(log), "\n"), 30)
}

func TestSystemLogIsStable(t *testing.T) {
	start := now.Add(-24 * time.Hour)
	assert.Equal(t, SystemLog(10, start), SystemLog(10, start))
	assert.NotContains(t, SystemLog(30, start), "EXTRA")
}

func TestPlantDiscoveryFiles(t *testing.T) {
	tree := NewDefaultTree("laptop", now)
	rng := rand.New(rand.NewSource(1))

	priv, _, err := GenerateKeyPair(rng, "admin@files.corp.local")
	require.NoError(t, err)

	bundles := []domain.NetworkCredentials{{
		NetworkID: "corp_megacorp",
		VPN: &domain.VPNCredential{
			NetworkID:   "corp_megacorp",
			NetworkName: "MegaCorp VPN",
			Username:    "j.smith",
			Password:    "Summer2023!",
			Server:      "vpn.megacorp.com",
			Protocol:    "OpenVPN",
		},
		Web: []domain.WebCredential{{URL: "https://intranet.corp.local", Username: "jsmith", Password: "pw"}},
		SSH: []domain.SSHCredential{{Host: "files.corp.local", Username: "admin", PrivateKey: priv}},
	}}
	require.NoError(t, PlantDiscoveryFiles(tree, bundles, rng, now))

	mail, err := tree.ReadFile(VPNMailPath)
	require.NoError(t, err)
	assert.Contains(t, mail, "Subject: VPN Access Configuration")
	assert.Contains(t, mail, "Server: vpn.megacorp.com")

	ovpn, err := tree.ReadFile("/etc/openvpn/corp_megacorp.ovpn")
	require.NoError(t, err)
	assert.Contains(t, ovpn, "remote vpn.megacorp.com 1194")
	assert.Contains(t, ovpn, "# Username: j.smith")

	raw, err := tree.ReadFile(BrowserLoginsPath)
	require.NoError(t, err)
	var doc struct {
		Logins []map[string]any `json:"logins"`
		Version int             `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, 3, doc.Version)
	require.Len(t, doc.Logins, 1)
	assert.Equal(t, "jsmith", doc.Logins[0]["username"])

	key, err := tree.ReadFile("/home/user/.ssh/id_files_corp_local")
	require.NoError(t, err)
	assert.Contains(t, key, "PRIVATE KEY")
	pub, err := tree.ReadFile("/home/user/.ssh/id_files_corp_local.pub")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pub, "ssh-ed25519 "))
	assert.Contains(t, pub, "admin@files.corp.local")
}

func TestGenerateKeyPairIsDeterministicPerSeed(t *testing.T) {
	_, pubA, err := GenerateKeyPair(rand.New(rand.NewSource(7)), "")
	require.NoError(t, err)
	_, pubB, err := GenerateKeyPair(rand.New(rand.NewSource(7)), "")
	require.NoError(t, err)
	assert.Equal(t, pubA, pubB)
}
