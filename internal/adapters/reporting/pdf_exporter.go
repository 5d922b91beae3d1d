package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// PDFExporter exports engagement reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Extension() string { return "pdf" }

// Export renders the engagement report as a single PDF document
func (e *PDFExporter) Export(report *domain.EngagementReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addRiskScore(pdf, report)
	e.addStatistics(pdf, report)
	e.addCompromisedHosts(pdf, report)
	e.addTopVulnerabilities(pdf, report)
	e.addNextSteps(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, report.Metadata.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	dateStr := fmt.Sprintf("Generated: %s", report.Metadata.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, dateStr, "", 1, "L", false, 0, "")

	pdf.Ln(8)
}

// addRiskScore draws the score box; the score measures how exposed the city is
func (e *PDFExporter) addRiskScore(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	r, g, b := e.getRiskColor(report.RiskScore)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")

	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255) // White
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f/10", report.RiskScore), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("%s Exposure", report.RiskLevel), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

// getRiskColor returns RGB color based on risk score
func (e *PDFExporter) getRiskColor(score float64) (r, g, b int) {
	switch {
	case score >= 8.0:
		return 220, 53, 69 // Red (Critical)
	case score >= 6.0:
		return 255, 149, 0 // Orange (High)
	case score >= 4.0:
		return 255, 204, 0 // Yellow (Medium)
	default:
		return 52, 199, 89 // Green (Low)
	}
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	e.sectionTitle(pdf, "Engagement Overview")

	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Networks Discovered", fmt.Sprintf("%d/%d", len(report.NetworksDiscovered), report.NetworksTotal), []int{0, 102, 204}},
		{"Systems Compromised", fmt.Sprintf("%d", len(report.CompromisedHosts)), []int{0, 102, 204}},
		{"Total Vulnerabilities", fmt.Sprintf("%d", report.VulnStats.Total), []int{0, 102, 204}},
		{"Credentials Collected", fmt.Sprintf("%d", report.CredentialsCollected), []int{0, 102, 204}},
		{"Critical", fmt.Sprintf("%d", report.VulnStats.Critical), []int{220, 53, 69}},
		{"High", fmt.Sprintf("%d", report.VulnStats.High), []int{255, 149, 0}},
		{"Medium", fmt.Sprintf("%d", report.VulnStats.Medium), []int{255, 204, 0}},
		{"Low", fmt.Sprintf("%d", report.VulnStats.Low), []int{52, 199, 89}},
	}

	// Two columns
	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

func (e *PDFExporter) addCompromisedHosts(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	e.sectionTitle(pdf, "Compromised Systems")

	if len(report.CompromisedHosts) == 0 {
		e.emptyNote(pdf, "No systems compromised yet")
		return
	}

	e.tableHeader(pdf, []string{"Hostname", "IP Address", "Network", "Security", "Access"}, []float64{50, 35, 45, 25, 15})

	pdf.SetFont("Arial", "", 9)
	for _, h := range report.CompromisedHosts {
		e.breakPage(pdf)
		access := "user"
		if h.Root {
			access = "root"
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(50, 7, truncate(h.Hostname, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, h.IP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, truncate(h.Network, 25), "1", 0, "L", false, 0, "")
		r, g, b := e.getLevelColor(h.Level)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(25, 7, h.Level.String(), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(15, 7, access, "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
}

func (e *PDFExporter) addTopVulnerabilities(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	e.sectionTitle(pdf, "Most Severe Findings")

	if len(report.TopVulnerabilities) == 0 {
		e.emptyNote(pdf, "No vulnerabilities discovered")
		return
	}

	e.tableHeader(pdf, []string{"CVE", "Vulnerability", "Severity", "Host", "Port"}, []float64{32, 58, 20, 55, 15})

	pdf.SetFont("Arial", "", 9)
	for _, v := range report.TopVulnerabilities {
		e.breakPage(pdf)
		r, g, b := e.getSeverityColor(v.Severity)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(32, 7, v.CVE, "1", 0, "L", false, 0, "")
		pdf.CellFormat(58, 7, truncate(v.Name, 32), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(20, 7, fmt.Sprintf("%.1f", v.Severity), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(55, 7, truncate(v.Host, 30), "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", v.Port), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
}

// getSeverityColor returns RGB color based on CVSS severity
func (e *PDFExporter) getSeverityColor(severity float64) (r, g, b int) {
	switch {
	case severity >= 9:
		return 220, 53, 69 // Red
	case severity >= 7:
		return 255, 149, 0 // Orange
	case severity >= 4:
		return 255, 204, 0 // Yellow
	default:
		return 52, 199, 89 // Green
	}
}

// getLevelColor follows the terminal palette for security levels
func (e *PDFExporter) getLevelColor(level domain.SecurityLevel) (r, g, b int) {
	switch level {
	case domain.SecurityVeryHigh, domain.SecurityHigh:
		return 220, 53, 69
	case domain.SecurityMedium:
		return 255, 149, 0
	default:
		return 52, 199, 89
	}
}

func (e *PDFExporter) addNextSteps(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	if len(report.NextSteps) == 0 {
		return
	}
	e.sectionTitle(pdf, "Suggested Next Steps")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(60, 60, 60)
	for i, step := range report.NextSteps {
		e.breakPage(pdf)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, step), "", "L", false)
	}
	pdf.Ln(5)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.EngagementReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.Metadata.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footerText := fmt.Sprintf("Generated by %s | Report ID: %s", report.Metadata.GeneratedBy, id)
	pdf.CellFormat(0, 5, footerText, "", 1, "C", false, 0, "")
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	e.breakPage(pdf)
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) emptyNote(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func (e *PDFExporter) tableHeader(pdf *gofpdf.Fpdf, cols []string, widths []float64) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	for i, col := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 8, col, "1", ln, "L", true, 0, "")
	}
}

// breakPage leaves room for the footer
func (e *PDFExporter) breakPage(pdf *gofpdf.Fpdf) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

var _ ports.ReportExporter = (*PDFExporter)(nil)
