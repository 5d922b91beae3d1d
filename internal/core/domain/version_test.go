package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want SoftwareVersion
	}{
		{"2.4.54", SoftwareVersion{Major: 2, Minor: 4, Patch: 54}},
		{"1.0a", SoftwareVersion{Major: 1, Suffix: "a"}},
		{"5.0-beta2", SoftwareVersion{Major: 5, Suffix: "-beta2"}},
		{"1.2.3.4", SoftwareVersion{Major: 1, Minor: 2, Patch: 3, Build: 4}},
		{"7", SoftwareVersion{Major: 7}},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseVersionRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "beta", "1.2.3.4.5"} {
		_, err := ParseVersion(in)
		assert.ErrorIs(t, err, ErrInvalidVersion, in)
	}
}

func TestVersionOrdering(t *testing.T) {
	assert.True(t, MustParseVersion("2.2.3").Less(MustParseVersion("2.4.54")))
	assert.True(t, MustParseVersion("1.0").Less(MustParseVersion("1.0a")))
	assert.True(t, MustParseVersion("1.0a").Less(MustParseVersion("1.0b")))
	assert.True(t, MustParseVersion("1.9z").Less(MustParseVersion("1.10")))
	assert.Equal(t, 0, MustParseVersion("1.0").Compare(MustParseVersion("1.0.0.0")))
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.0.0", MustParseVersion("1").String())
	assert.Equal(t, "1.2.3.4", MustParseVersion("1.2.3.4").String())
	assert.Equal(t, "1.0.0a", MustParseVersion("1.0a").String())
}

func TestVersionTextRoundTrip(t *testing.T) {
	var v SoftwareVersion
	require.NoError(t, v.UnmarshalText([]byte("10.0.23")))
	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10.0.23", string(text))
}
