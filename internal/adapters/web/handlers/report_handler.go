package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// ReportSource builds the current engagement report.
type ReportSource interface {
	Generate(ctx context.Context) (*domain.EngagementReport, error)
}

// ReportHandler handles report generation
type ReportHandler struct {
	Reports  ReportSource
	Exporter ports.ReportExporter
	Audit    ports.AuditService
}

func NewReportHandler(reports ReportSource, exporter ports.ReportExporter, audit ports.AuditService) *ReportHandler {
	return &ReportHandler{Reports: reports, Exporter: exporter, Audit: audit}
}

// HandleDownloadPDF renders the engagement report as a download
func (h *ReportHandler) HandleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Generate(r.Context())
	if err != nil {
		slog.Error("Failed to generate report", "error", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	data, err := h.Exporter.Export(report)
	if err != nil {
		slog.Error("Failed to export report", "error", err)
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Log(r.Context(), domain.ActionReportExport, report.Metadata.ID, "web download", true); err != nil {
			slog.Warn("Failed to audit report export", "error", err)
		}
	}

	filename := fmt.Sprintf("engagement_%s.%s", report.Metadata.GeneratedAt.Format("20060102_150405"), h.Exporter.Extension())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
