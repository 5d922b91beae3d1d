package ports

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// ProgressRepository persists the player's progress document.
type ProgressRepository interface {
	// Load returns the saved progress, or an empty document when nothing was saved yet.
	Load(ctx context.Context) (domain.Progress, error)

	// Save replaces the stored progress.
	Save(ctx context.Context, progress domain.Progress) error

	Close() error
}
