package access

import (
	"testing"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootSet map[string]bool

func (r rootSet) HasRootAccess(hostname string) bool { return r[hostname] }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func vpnProfile() *domain.AccessProfile {
	return domain.NewAccessProfile("corp_megacorp", domain.AccessVPN, domain.VPNCredentialRequirement{
		Username: "j.smith",
		Password: "Summer2023!",
		Server:   "vpn.megacorp.com",
	})
}

func goodVPN() *domain.VPNCredential {
	return &domain.VPNCredential{NetworkID: "corp_megacorp", Username: "j.smith", Password: "Summer2023!", Server: "vpn.megacorp.com"}
}

func badVPN() *domain.VPNCredential {
	v := goodVPN()
	v.Password = "nope"
	return v
}

func TestCheckAccess_ByType(t *testing.T) {
	roots := rootSet{}
	c := NewController(roots, nil)
	c.SetProfile(domain.NewAccessProfile("public", domain.AccessPublic))
	c.SetProfile(domain.NewAccessProfile("lan", domain.AccessDirectConnection))
	c.SetProfile(domain.NewAccessProfile("invite", domain.AccessInvitation))
	c.SetProfile(domain.NewAccessProfile("internal", domain.AccessCompromised,
		domain.CompromisedSystemRequirement{Hostname: "gw.corp.local"}))
	c.SetProfile(vpnProfile())

	assert.NoError(t, c.CheckAccess(Request{NetworkID: "public"}))
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "lan"}))
	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "invite"}), domain.ErrAccessDenied)

	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "internal"}), domain.ErrAccessDenied)
	roots["gw.corp.local"] = true
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "internal"}))

	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "corp_megacorp"}), domain.ErrCredentialsRequired)
	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: badVPN()}), domain.ErrInvalidCredentials)
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: goodVPN()}))
}

func TestCheckAccess_VPNServerMustMatch(t *testing.T) {
	c := NewController(nil, nil)
	c.SetProfile(vpnProfile())

	v := goodVPN()
	v.Server = "vpn.other.com"
	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: v}), domain.ErrInvalidCredentials)
}

func TestCheckAccess_MissingProfileDefaultsToVPN(t *testing.T) {
	c := NewController(nil, nil)
	assert.ErrorIs(t, c.CheckAccess(Request{NetworkID: "mystery"}), domain.ErrCredentialsRequired)
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "mystery", VPN: goodVPN()}))
	assert.Equal(t, domain.AccessVPN, c.Profile("mystery").Type)
}

func TestCheckAccess_Lockout(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewController(nil, clk.Now)
	c.SetProfile(vpnProfile())
	req := Request{NetworkID: "corp_megacorp", VPN: badVPN()}

	for i := 0; i < domain.MaxFailedAttempts; i++ {
		assert.ErrorIs(t, c.CheckAccess(req), domain.ErrInvalidCredentials)
	}
	p := c.Profile("corp_megacorp")
	require.True(t, p.Locked)
	assert.True(t, p.LockExpiry.After(clk.t))

	// Correct credentials are refused while locked.
	err := c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: goodVPN()})
	assert.ErrorIs(t, err, domain.ErrAccessLocked)
	assert.Contains(t, err.Error(), "12:15")

	clk.t = clk.t.Add(domain.LockoutDuration + time.Second)
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: goodVPN()}))
	assert.Zero(t, p.FailedAttempts)
}

func TestCheckAccess_MissingCredentialsDoNotCount(t *testing.T) {
	c := NewController(nil, nil)
	c.SetProfile(vpnProfile())
	for i := 0; i < 5; i++ {
		_ = c.CheckAccess(Request{NetworkID: "corp_megacorp"})
	}
	assert.Zero(t, c.Profile("corp_megacorp").FailedAttempts)
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "corp_megacorp", VPN: goodVPN()}))
}

func TestCheckAccess_SecurityWindows(t *testing.T) {
	c := NewController(nil, nil)
	c.SetProfile(domain.NewAccessProfile("gov", domain.AccessPublic))
	sec := domain.DefaultSecurityProfile()
	sec.BlockedSources = []string{"dark_underground_market"}

	err := c.CheckAccess(Request{NetworkID: "gov", Source: "dark_underground_market", Security: &sec})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.NoError(t, c.CheckAccess(Request{NetworkID: "gov", Source: "public", Security: &sec}))
}
