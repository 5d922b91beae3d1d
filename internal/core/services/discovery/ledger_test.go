package discovery

import (
	"testing"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func clue(network string, kind domain.ClueKind, value string) domain.DiscoveryClue {
	c := domain.NewDiscoveryClue(network, kind, "sampleos", "/home/user/notes.txt")
	c.Properties[domain.PropDomainName] = value
	return c
}

func TestLedger_ThresholdDiscovery(t *testing.T) {
	l := NewLedger()
	var fired []string
	l.OnDiscovery(func(id string) { fired = append(fired, id) })

	assert.True(t, l.AddClue(clue("X", domain.KindDomainReference, "a.corp")))
	assert.True(t, l.AddClue(clue("X", domain.KindIPAddressReference, "10.0.0.1")))
	assert.False(t, l.IsDiscovered("X"))

	assert.True(t, l.AddClue(clue("X", domain.KindEmailReference, "it@corp")))
	assert.True(t, l.IsDiscovered("X"))
	assert.Equal(t, []string{"X"}, fired)

	l.AddClue(clue("X", domain.KindLogEntry, "more"))
	assert.Equal(t, []string{"X"}, fired)
}

func TestLedger_DuplicateCluesDoNotCount(t *testing.T) {
	l := NewLedger()
	c := clue("X", domain.KindDomainReference, "a.corp")

	assert.True(t, l.AddClue(c))
	c.SourceFile = "/other/file"
	assert.False(t, l.AddClue(c))
	assert.False(t, l.AddClue(clue("X", domain.KindDomainReference, "a.corp")))
	assert.Equal(t, 1, l.ClueCount("X"))
	assert.False(t, l.IsDiscovered("X"))
}

func TestLedger_UnknownNetworkNeverDiscovered(t *testing.T) {
	l := NewLedger()
	for _, v := range []string{"a", "b", "c", "d"} {
		l.AddClue(clue(domain.UnknownNetwork, domain.KindDomainReference, v))
	}
	assert.Len(t, l.CluesFor(domain.UnknownNetwork), 4)
	assert.False(t, l.IsDiscovered(domain.UnknownNetwork))
}

func TestLedger_MarkDiscovered(t *testing.T) {
	l := NewLedger()
	count := 0
	l.OnDiscovery(func(string) { count++ })

	l.MarkDiscovered("public")
	l.MarkDiscovered("public")
	l.MarkDiscovered("corp")
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"corp", "public"}, l.Discovered())
}
