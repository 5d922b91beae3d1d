package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecurityScore(t *testing.T) {
	assert.Equal(t, 30, DefaultSecurityProfile().Score())

	everything := SecurityProfile{
		Level:             SecurityVeryHigh,
		RequiresVPN:       true,
		Firewall:          true,
		Segmentation:      true,
		MFA:               true,
		IDS:               true,
		Encryption:        true,
		ClientCertificate: true,
	}
	assert.Equal(t, 100, everything.Score())

	assert.Equal(t, 25, SecurityProfile{Level: SecurityLow, RequiresVPN: true}.Score())
}

func TestIsAccessAllowed(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	night := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)

	open := DefaultSecurityProfile()
	assert.True(t, open.IsAccessAllowed("public", night))

	filtered := SecurityProfile{
		AllowedSources: []string{"public"},
		BlockedSources: []string{"dark_underground_market"},
		AccessWindows:  []TimeWindow{{Start: 8 * time.Hour, End: 18 * time.Hour}},
	}
	assert.True(t, filtered.IsAccessAllowed("public", noon))
	assert.False(t, filtered.IsAccessAllowed("public", night))
	assert.False(t, filtered.IsAccessAllowed("res_maple_street", noon))
	assert.False(t, filtered.IsAccessAllowed("dark_underground_market", noon))
}

func TestSecurityLevelParsing(t *testing.T) {
	for i, name := range []string{"verylow", "Low", "MEDIUM", "High", "VeryHigh"} {
		l, err := ParseSecurityLevel(name)
		assert.NoError(t, err)
		assert.Equal(t, SecurityLevel(i), l)
	}
	_, err := ParseSecurityLevel("extreme")
	assert.ErrorIs(t, err, ErrInvalidSecurityLevel)
}

func TestVulnerabilityModifier(t *testing.T) {
	want := map[SecurityLevel]float64{
		SecurityVeryLow:  2.0,
		SecurityLow:      1.5,
		SecurityMedium:   1.0,
		SecurityHigh:     0.5,
		SecurityVeryHigh: 0.25,
	}
	for level, mod := range want {
		assert.Equal(t, mod, level.VulnerabilityModifier(), level.String())
	}
}
