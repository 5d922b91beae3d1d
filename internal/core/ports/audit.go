package ports

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// AuditService records player actions.
type AuditService interface {
	// Log records an action taken in the current session.
	Log(ctx context.Context, action domain.AuditAction, target, details string, success bool) error

	// GetLogs retrieves the most recent records.
	GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// AuditRepository handles the low-level persistence of audit data.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
