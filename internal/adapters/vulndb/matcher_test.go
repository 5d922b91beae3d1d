package vulndb

import (
	"context"
	"testing"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVulnerabilityRepository struct {
	mock.Mock
}

func (m *MockVulnerabilityRepository) FindByProduct(ctx context.Context, product string) ([]domain.VulnerabilityEntry, error) {
	args := m.Called(ctx, product)
	if v := args.Get(0); v != nil {
		return v.([]domain.VulnerabilityEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVulnerabilityRepository) GetByCVE(ctx context.Context, cve string) (*domain.VulnerabilityEntry, error) {
	args := m.Called(ctx, cve)
	if v := args.Get(0); v != nil {
		return v.(*domain.VulnerabilityEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVulnerabilityRepository) UpsertEntry(ctx context.Context, e domain.VulnerabilityEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockVulnerabilityRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVulnerabilityRepository) Close() error { return nil }

func software(name, version string) *domain.Software {
	return &domain.Software{Name: name, Version: domain.MustParseVersion(version)}
}

func TestMatcher_VersionRanges(t *testing.T) {
	repo := new(MockVulnerabilityRepository)
	repo.On("FindByProduct", mock.Anything, "apache").Return([]domain.VulnerabilityEntry{
		entry("CVE-2011-3192", "apache", 7.8, "2.0.0", "2.2.20"),
		entry("CVE-2017-9798", "apache", 7.5, "2.2.0", "2.4.28"),
		entry("CVE-2021-41773", "apache", 7.5, "2.2.0", ""),
	}, nil)
	m := NewMatcher(repo)

	tests := []struct {
		version string
		want    []string
	}{
		{"2.2.3", []string{"CVE-2011-3192", "CVE-2017-9798", "CVE-2021-41773"}},
		{"2.2.20", []string{"CVE-2017-9798", "CVE-2021-41773"}},
		{"2.4.54", []string{"CVE-2021-41773"}},
		{"1.3.0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := m.Match(context.Background(), software("Apache", tt.version))
			require.NoError(t, err)
			var ids []string
			for _, v := range got {
				ids = append(ids, v.CVE)
				assert.Equal(t, "Apache", v.Software)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMatcher_Aliases(t *testing.T) {
	repo := new(MockVulnerabilityRepository)
	repo.On("FindByProduct", mock.Anything, "postgresql").Return([]domain.VulnerabilityEntry{}, nil)

	_, err := NewMatcher(repo).Match(context.Background(), software("Postgres", "9.0.0"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMatcher_EmbeddedSeed(t *testing.T) {
	repo := newTestRepo(t)
	_, err := NewSeedLoader(repo).EnsureSeeded(context.Background())
	require.NoError(t, err)

	got, err := NewMatcher(repo).Match(context.Background(), software("MySQL", "5.5.0"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "CVE-2016-6662", got[0].CVE)
}
