package reporting

import (
	"math"
	"sort"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// RiskCalculator scores how exposed the simulated city is to the player.
type RiskCalculator struct{}

// NewRiskCalculator creates a new risk calculator instance
func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{}
}

// CalculateExposure returns a 0-10 score from the known vulnerabilities and
// the number of hosts already compromised.
func (rc *RiskCalculator) CalculateExposure(vulns []domain.VulnerabilityRecord, compromised int) float64 {
	if len(vulns) == 0 && compromised == 0 {
		return 0.0
	}

	var total float64
	for _, v := range vulns {
		total += v.Severity
	}
	avg := 0.0
	if len(vulns) > 0 {
		avg = total / float64(len(vulns))
	} else {
		// Root access without a catalogued flaw still means exposure
		avg = 5.0
	}

	// Every owned host adds 10%, up to doubling the score
	factor := 1.0 + math.Min(float64(compromised)/10.0, 1.0)

	return math.Min(avg*factor, 10.0)
}

// GetRiskLevel converts numeric score to human-readable level
func (rc *RiskCalculator) GetRiskLevel(score float64) string {
	switch {
	case score >= 8.0:
		return "Critical"
	case score >= 6.0:
		return "High"
	case score >= 4.0:
		return "Medium"
	default:
		return "Low"
	}
}

// Stats buckets inventory entries by severity.
func (rc *RiskCalculator) Stats(vulns []domain.VulnerabilityRecord) domain.VulnerabilityStats {
	stats := domain.VulnerabilityStats{Total: len(vulns)}
	for _, v := range vulns {
		switch v.SeverityLabel() {
		case "Critical":
			stats.Critical++
		case "High":
			stats.High++
		case "Medium":
			stats.Medium++
		default:
			stats.Low++
		}
	}
	return stats
}

// TopVulnerabilities ranks inventory entries by severity, keeping the first
// entry of each CVE.
func (rc *RiskCalculator) TopVulnerabilities(vulns []domain.VulnerabilityRecord, limit int) []domain.VulnerabilityRecord {
	sorted := make([]domain.VulnerabilityRecord, len(vulns))
	copy(sorted, vulns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		return sorted[i].CVE < sorted[j].CVE
	})

	seen := make(map[string]bool)
	var top []domain.VulnerabilityRecord
	for _, v := range sorted {
		if seen[v.CVE] {
			continue
		}
		seen[v.CVE] = true
		top = append(top, v)
		if len(top) == limit {
			break
		}
	}
	return top
}
