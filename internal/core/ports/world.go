package ports

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// WorldSource provides the world definition.
type WorldSource interface {
	Load(ctx context.Context) (*domain.WorldDefinition, error)
}

// SkeletonSource provides the base files of a host by device type. Content
// may hold {{hostname}}, {{ip}} and {{user}} placeholders.
type SkeletonSource interface {
	Files(deviceType domain.DeviceType) (map[string]string, error)
}
