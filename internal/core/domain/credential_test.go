package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredentialValidity(t *testing.T) {
	tests := []struct {
		name  string
		cred  Credential
		valid bool
	}{
		{"vpn complete", VPNCredential{NetworkID: "n", Username: "u", Password: "p", Server: "s"}, true},
		{"vpn missing network", VPNCredential{Username: "u", Password: "p", Server: "s"}, false},
		{"ssh password", SSHCredential{Host: "h", Username: "u", Password: "p"}, true},
		{"ssh key", SSHCredential{Host: "h", Username: "u", PrivateKey: "k"}, true},
		{"ssh neither", SSHCredential{Host: "h", Username: "u"}, false},
		{"web", WebCredential{URL: "x", Username: "u", Password: "p"}, true},
		{"db missing pass", DatabaseCredential{Server: "s", Username: "u"}, false},
		{"cert expired", CertificateCredential{Data: "d", ExpiresAt: time.Now().Add(-time.Hour)}, false},
		{"cert fresh", CertificateCredential{Data: "d", ExpiresAt: time.Now().Add(time.Hour)}, true},
		{"api token", APICredential{BaseURL: "b", Token: "t"}, true},
		{"api bare", APICredential{BaseURL: "b"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.cred.IsValid(), tt.name)
	}
}

func TestCredentialDisplay(t *testing.T) {
	vpn := VPNCredential{NetworkID: "corp", NetworkName: "MegaCorp VPN", Username: "j.smith", Server: "vpn.megacorp.com"}
	assert.Equal(t, "VPN: MegaCorp VPN (j.smith@vpn.megacorp.com)", vpn.Display())
	assert.Equal(t, DefaultVPNPort, vpn.EffectivePort())

	api := APICredential{BaseURL: "https://api", Key: "abcdefghijkl"}
	assert.Equal(t, "API: https://api (abcdefgh...)", api.Display())
}

func TestNetworkCredentialsSlots(t *testing.T) {
	var nc NetworkCredentials
	first := VPNCredential{NetworkID: "n", Username: "a", Password: "p", Server: "s"}
	second := VPNCredential{NetworkID: "n", Username: "b", Password: "p", Server: "s"}

	assert.True(t, nc.Add(first))
	assert.True(t, nc.Add(second))
	assert.Equal(t, "b", nc.VPN.Username)

	ssh := SSHCredential{Host: "h", Username: "u", Password: "p"}
	assert.True(t, nc.Add(ssh))
	assert.False(t, nc.Add(ssh))
	assert.False(t, nc.Add(WebCredential{URL: "x"}))
	assert.Equal(t, 2, nc.Count())

	var merged NetworkCredentials
	merged.Merge(nc)
	assert.Equal(t, 2, merged.Count())
}
