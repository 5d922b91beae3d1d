package reporting

import (
	"fmt"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// maxNextSteps bounds the hints printed in a report.
const maxNextSteps = 5

// RecommendationEngine suggests what the player could try next.
type RecommendationEngine struct{}

// NewRecommendationEngine creates a new recommendation engine instance
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Progress is the part of the game state the engine looks at.
type Progress struct {
	Vulnerabilities []domain.VulnerabilityRecord
	Compromised     map[string]bool
	// Locked lists discovered networks the player is not connected to.
	Locked      []string
	Credentials int
}

// NextSteps builds prioritized hints: pending exploits first, then locked
// networks, then general advice.
func (re *RecommendationEngine) NextSteps(p Progress) []string {
	var steps []string

	exploited := make(map[string]bool)
	for _, v := range p.Vulnerabilities {
		if p.Compromised[v.Host] || exploited[v.Host] {
			continue
		}
		exploited[v.Host] = true
		steps = append(steps, fmt.Sprintf("Exploit %s on %s (%s, severity %.1f)", v.CVE, v.Host, v.Software, v.Severity))
	}

	for _, id := range p.Locked {
		steps = append(steps, fmt.Sprintf("Find credentials for %s and run 'vpn-connect %s'", id, id))
	}

	if p.Credentials == 0 {
		steps = append(steps, "Run 'scan-creds' on machines you own to harvest credentials")
	}
	if len(p.Vulnerabilities) == 0 {
		steps = append(steps, "Map hosts with 'netstat' and probe services with 'vuln-scan'")
	}
	if len(steps) == 0 {
		steps = append(steps, "Pivot through owned gateways to reach deeper networks")
	}

	if len(steps) > maxNextSteps {
		steps = steps[:maxNextSteps]
	}
	return steps
}
