package ports

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// VulnerabilityRepository is the vulnerability catalog.
type VulnerabilityRepository interface {
	// FindByProduct returns every catalog entry for a software name.
	FindByProduct(ctx context.Context, product string) ([]domain.VulnerabilityEntry, error)

	// GetByCVE fetches a single entry.
	GetByCVE(ctx context.Context, cve string) (*domain.VulnerabilityEntry, error)

	UpsertEntry(ctx context.Context, entry domain.VulnerabilityEntry) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// VulnerabilityMatcher selects the catalog entries that affect installed software.
type VulnerabilityMatcher interface {
	Match(ctx context.Context, software *domain.Software) ([]domain.Vulnerability, error)
}
