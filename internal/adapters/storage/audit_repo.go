package storage

import (
	"context"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// Ensure compliance
var _ ports.AuditRepository = (*SQLiteAdapter)(nil)

func (a *SQLiteAdapter) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	return a.db.WithContext(ctx).Create(&log).Error
}

// ListAuditLogs returns the newest entries first.
func (a *SQLiteAdapter) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	if err := a.db.WithContext(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// PruneAuditLogs deletes entries recorded before cutoff.
func (a *SQLiteAdapter) PruneAuditLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&domain.AuditLog{})
	return res.RowsAffected, res.Error
}
