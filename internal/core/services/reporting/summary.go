package reporting

import (
	"fmt"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// FormatSummary renders a report as terminal text.
func FormatSummary(r *domain.EngagementReport) string {
	var b strings.Builder
	b.WriteString("ENGAGEMENT REPORT\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Generated:    %s\n", r.Metadata.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Exposure:     %.1f/10 (%s)\n", r.RiskScore, r.RiskLevel)
	fmt.Fprintf(&b, "Networks:     %d of %d discovered\n", len(r.NetworksDiscovered), r.NetworksTotal)
	fmt.Fprintf(&b, "Owned hosts:  %d\n", len(r.CompromisedHosts))
	fmt.Fprintf(&b, "Credentials:  %d\n", r.CredentialsCollected)
	fmt.Fprintf(&b, "Vulns:        %d (critical %d, high %d, medium %d, low %d)\n",
		r.VulnStats.Total, r.VulnStats.Critical, r.VulnStats.High, r.VulnStats.Medium, r.VulnStats.Low)

	if len(r.CompromisedHosts) > 0 {
		b.WriteString("\nCOMPROMISED SYSTEMS\n")
		for _, h := range r.CompromisedHosts {
			fmt.Fprintf(&b, "  %-20s %-15s %s\n", h.Hostname, h.IP, h.Network)
		}
	}

	if len(r.TopVulnerabilities) > 0 {
		b.WriteString("\nTOP VULNERABILITIES\n")
		for _, v := range r.TopVulnerabilities {
			fmt.Fprintf(&b, "  %-16s %4.1f  %s\n", v.CVE, v.Severity, v.Name)
		}
	}

	b.WriteString("\nNEXT STEPS\n")
	for i, s := range r.NextSteps {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
	}
	return b.String()
}
