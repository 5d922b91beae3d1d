package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements ports.ProgressRepository and ports.AuditRepository
// using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// CompromisedHostModel is one host the player owns.
type CompromisedHostModel struct {
	Hostname  string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// DiscoveredVulnerabilityModel is one CVE the player found on a host.
type DiscoveredVulnerabilityModel struct {
	Hostname  string `gorm:"primaryKey"`
	CVE       string `gorm:"primaryKey;column:cve"`
	CreatedAt time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Spans only; metrics go through telemetry
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&CompromisedHostModel{}, &DiscoveredVulnerabilityModel{}, &domain.AuditLog{}); err != nil {
		return nil, err
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp)")

	return &SQLiteAdapter{db: db}, nil
}

// Load assembles the progress document from both tables.
func (a *SQLiteAdapter) Load(ctx context.Context) (domain.Progress, error) {
	p := domain.NewProgress()

	var hosts []CompromisedHostModel
	if err := a.db.WithContext(ctx).Order("hostname").Find(&hosts).Error; err != nil {
		return p, fmt.Errorf("load compromised hosts: %w", err)
	}
	for _, h := range hosts {
		p.CompromisedHosts = append(p.CompromisedHosts, h.Hostname)
	}

	var vulns []DiscoveredVulnerabilityModel
	if err := a.db.WithContext(ctx).Order("hostname, cve").Find(&vulns).Error; err != nil {
		return p, fmt.Errorf("load discovered vulnerabilities: %w", err)
	}
	for _, v := range vulns {
		p.DiscoveredVulnerabilities[v.Hostname] = append(p.DiscoveredVulnerabilities[v.Hostname], v.CVE)
	}
	return p, nil
}

// Save replaces the stored progress in a single transaction.
func (a *SQLiteAdapter) Save(ctx context.Context, progress domain.Progress) error {
	progress.Normalize()
	now := time.Now().UTC()

	hosts := make([]CompromisedHostModel, 0, len(progress.CompromisedHosts))
	for _, h := range progress.CompromisedHosts {
		hosts = append(hosts, CompromisedHostModel{Hostname: h, CreatedAt: now})
	}
	var vulns []DiscoveredVulnerabilityModel
	for host, cves := range progress.DiscoveredVulnerabilities {
		for _, cve := range cves {
			vulns = append(vulns, DiscoveredVulnerabilityModel{Hostname: host, CVE: cve, CreatedAt: now})
		}
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CompromisedHostModel{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&DiscoveredVulnerabilityModel{}).Error; err != nil {
			return err
		}
		if len(hosts) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(hosts, 100).Error; err != nil {
				return err
			}
		}
		if len(vulns) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(vulns, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.ProgressRepository = (*SQLiteAdapter)(nil)
