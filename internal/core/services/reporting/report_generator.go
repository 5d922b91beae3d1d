package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/services/player"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Source is the game state a report is built from.
type Source interface {
	Networks() []*domain.Network
	DiscoveredNetworks() []*domain.Network
	CurrentNetworkID() string
	Player() *player.State
}

// ReportGenerator generates engagement reports
type ReportGenerator struct {
	source      Source
	riskCalc    *RiskCalculator
	recommender *RecommendationEngine
	now         func() time.Time
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(source Source, now func() time.Time) *ReportGenerator {
	if now == nil {
		now = time.Now
	}
	return &ReportGenerator{
		source:      source,
		riskCalc:    NewRiskCalculator(),
		recommender: NewRecommendationEngine(),
		now:         now,
	}
}

// Generate creates a report of everything the player has achieved so far
func (g *ReportGenerator) Generate(ctx context.Context) (*domain.EngagementReport, error) {
	_, span := otel.Tracer("reporting").Start(ctx, "Generate")
	defer span.End()

	ps := g.source.Player()
	vulns := ps.Inventory()
	compromised := g.compromisedHosts(ps)

	owned := make(map[string]bool, len(compromised))
	for _, h := range compromised {
		owned[h.Hostname] = true
	}

	var discovered, locked []string
	current := g.source.CurrentNetworkID()
	for _, n := range g.source.DiscoveredNetworks() {
		discovered = append(discovered, n.ID)
		if n.ID != current {
			locked = append(locked, n.ID)
		}
	}

	score := g.riskCalc.CalculateExposure(vulns, len(compromised))
	report := &domain.EngagementReport{
		Metadata: domain.ReportMetadata{
			ID:          uuid.New().String(),
			Title:       "Engagement Report",
			GeneratedAt: g.now(),
			GeneratedBy: "netcity",
		},
		RiskScore:            score,
		RiskLevel:            g.riskCalc.GetRiskLevel(score),
		NetworksTotal:        len(g.source.Networks()),
		NetworksDiscovered:   discovered,
		CompromisedHosts:     compromised,
		Vulnerabilities:      vulns,
		TopVulnerabilities:   g.riskCalc.TopVulnerabilities(vulns, 5),
		VulnStats:            g.riskCalc.Stats(vulns),
		CredentialsCollected: ps.CredentialCount(),
		NextSteps: g.recommender.NextSteps(Progress{
			Vulnerabilities: vulns,
			Compromised:     owned,
			Locked:          locked,
			Credentials:     ps.CredentialCount(),
		}),
	}

	span.SetAttributes(attribute.Int("report.vulnerabilities", len(vulns)))
	span.SetAttributes(attribute.Int("report.compromised", len(compromised)))
	return report, nil
}

// compromisedHosts resolves owned hostnames against the world. Hosts no
// longer present are still listed, without details.
func (g *ReportGenerator) compromisedHosts(ps *player.State) []domain.CompromisedHost {
	index := make(map[string]domain.CompromisedHost)
	for _, n := range g.source.Networks() {
		for _, h := range n.ListDevices() {
			index[h.Hostname] = domain.CompromisedHost{
				Hostname: h.Hostname,
				IP:       h.IP,
				Network:  n.ID,
				Level:    h.Level,
				Root:     h.HasRootAccess(),
			}
		}
	}

	var out []domain.CompromisedHost
	for _, name := range ps.CompromisedHosts() {
		h, ok := index[name]
		if !ok {
			h = domain.CompromisedHost{Hostname: name, Root: true}
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out
}
