package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "progress.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestLoad_Empty(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.CompromisedHosts)
	assert.NotNil(t, p.DiscoveredVulnerabilities)
}

func TestSaveAndReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	p := domain.NewProgress()
	p.CompromisedHosts = []string{"web.local", "server.local", "web.local"}
	p.DiscoveredVulnerabilities["server.local"] = []string{"CVE-2021-41773"}
	require.NoError(t, s.Save(ctx, p))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"server.local", "web.local"}, loaded.CompromisedHosts)
	assert.Equal(t, []string{"CVE-2021-41773"}, loaded.DiscoveredVulnerabilities["server.local"])
}

func TestLoad_CorruptDocument(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(progressBucket)).Put([]byte(progressKey), []byte("{not json"))
	}))

	p, err := s.Load(context.Background())
	assert.Error(t, err)
	assert.Empty(t, p.CompromisedHosts)
}
