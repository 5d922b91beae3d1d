package reporting

import (
	"strings"
	"testing"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

func TestNextSteps_ExploitsFirst(t *testing.T) {
	re := NewRecommendationEngine()

	steps := re.NextSteps(Progress{
		Vulnerabilities: []domain.VulnerabilityRecord{
			record("CVE-1", 9.0, "files.corp.local"),
			record("CVE-2", 7.0, "files.corp.local"),
			record("CVE-3", 5.0, "owned.corp.local"),
		},
		Compromised: map[string]bool{"owned.corp.local": true},
		Locked:      []string{"gov_city_hall"},
		Credentials: 2,
	})

	if len(steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d: %v", len(steps), steps)
	}
	if !strings.Contains(steps[0], "CVE-1") || !strings.Contains(steps[0], "files.corp.local") {
		t.Errorf("first step should exploit files.corp.local, got %q", steps[0])
	}
	if !strings.Contains(steps[1], "vpn-connect gov_city_hall") {
		t.Errorf("second step should point at the locked network, got %q", steps[1])
	}
}

func TestNextSteps_FreshGame(t *testing.T) {
	re := NewRecommendationEngine()

	steps := re.NextSteps(Progress{})

	if len(steps) != 2 {
		t.Fatalf("Expected 2 general steps, got %d: %v", len(steps), steps)
	}
	if !strings.Contains(steps[0], "scan-creds") {
		t.Errorf("unexpected first step %q", steps[0])
	}
}

func TestNextSteps_Limit(t *testing.T) {
	re := NewRecommendationEngine()

	var vulns []domain.VulnerabilityRecord
	for _, h := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		vulns = append(vulns, record("CVE-"+h, 5.0, h))
	}

	steps := re.NextSteps(Progress{Vulnerabilities: vulns, Credentials: 1})
	if len(steps) != maxNextSteps {
		t.Errorf("Expected %d steps, got %d", maxNextSteps, len(steps))
	}
}

func TestNextSteps_NothingLeft(t *testing.T) {
	re := NewRecommendationEngine()

	steps := re.NextSteps(Progress{
		Vulnerabilities: []domain.VulnerabilityRecord{record("CVE-1", 9.0, "a")},
		Compromised:     map[string]bool{"a": true},
		Credentials:     3,
	})

	if len(steps) != 1 || !strings.Contains(steps[0], "Pivot") {
		t.Errorf("unexpected steps: %v", steps)
	}
}
