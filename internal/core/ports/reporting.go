package ports

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// ReportExporter renders an engagement report into a document format.
type ReportExporter interface {
	Export(report *domain.EngagementReport) ([]byte, error)
	Extension() string
}

// ReportStore keeps exported report documents.
type ReportStore interface {
	// Save writes a document and returns where it was stored.
	Save(ctx context.Context, name string, data []byte) (string, error)
}
