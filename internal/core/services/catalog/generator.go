package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// ageRatioSpan is the software age, in days, at which the oldest template
// version is chosen.
const ageRatioSpan = 1500.0

// Generator installs software on hosts and decides which of it is vulnerable.
// All randomness comes from the host's own generator.
type Generator struct {
	templates map[domain.SoftwareCategory][]SoftwareTemplate
	byName    map[string]SoftwareTemplate
	profiles  map[domain.DeviceType]DeviceProfile
	matcher   ports.VulnerabilityMatcher
	now       func() time.Time
}

// NewGenerator wires the default tables to a vulnerability matcher.
func NewGenerator(matcher ports.VulnerabilityMatcher, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	g := &Generator{
		templates: make(map[domain.SoftwareCategory][]SoftwareTemplate),
		byName:    make(map[string]SoftwareTemplate),
		profiles:  DefaultDeviceProfiles(),
		matcher:   matcher,
		now:       now,
	}
	for _, t := range DefaultTemplates() {
		g.AddTemplate(t)
	}
	return g
}

// AddTemplate registers an extra software template.
func (g *Generator) AddTemplate(t SoftwareTemplate) {
	g.templates[t.Category] = append(g.templates[t.Category], t)
	g.byName[strings.ToLower(t.Name)] = t
}

// Template looks a template up by product name.
func (g *Generator) Template(name string) (SoftwareTemplate, bool) {
	t, ok := g.byName[strings.ToLower(name)]
	return t, ok
}

// Profile returns the software profile for a device type.
func (g *Generator) Profile(t domain.DeviceType) DeviceProfile {
	if p, ok := g.profiles[t]; ok {
		return p
	}
	return GenericProfile
}

// Populate rolls the device profile of host and installs the chosen software.
func (g *Generator) Populate(host *domain.Host) {
	rng := host.Rand()
	for _, chance := range g.Profile(host.Type).Categories {
		if rng.Float64() >= chance.Probability {
			continue
		}
		candidates := g.templates[chance.Category]
		if len(candidates) == 0 {
			continue
		}
		t := candidates[rng.Intn(len(candidates))]
		if _, installed := host.FindSoftware(t.Name); installed {
			continue
		}
		host.InstallSoftware(g.Instantiate(t, host))
	}
}

// Install adds a named product to host regardless of its profile.
func (g *Generator) Install(host *domain.Host, name string) (*domain.Software, error) {
	if sw, ok := host.FindSoftware(name); ok {
		return sw, nil
	}
	t, ok := g.Template(name)
	if !ok {
		return nil, fmt.Errorf("unknown software template %q", name)
	}
	sw := g.Instantiate(t, host)
	host.InstallSoftware(sw)
	return sw, nil
}

// Instantiate picks a release date and version for t on host. Older
// software gets a version closer to the template's oldest one.
func (g *Generator) Instantiate(t SoftwareTemplate, host *domain.Host) *domain.Software {
	rng := host.Rand()
	now := g.now()
	released := host.CreatedAt.AddDate(0, 0, 30+rng.Intn(336))
	if released.After(now) {
		released = now
	}
	ratio := AgeRatio(int(now.Sub(released).Hours() / 24))

	version := domain.SoftwareVersion{
		Major: interpolate(t.Oldest.Major, t.Newest.Major, ratio),
		Minor: interpolate(t.Oldest.Minor, t.Newest.Minor, ratio),
		Patch: rng.Intn(101),
	}
	sw := domain.NewSoftware(t.Name, version, t.Category, released)
	for _, p := range t.Ports {
		sw.AddPort(p)
	}
	return sw
}

// AgeRatio maps a software age onto [0,1], 1 being the oldest.
func AgeRatio(ageDays int) float64 {
	return math.Max(0, math.Min(1, float64(ageDays)/ageRatioSpan))
}

func interpolate(oldest, newest int, ratio float64) int {
	return oldest + int(float64(newest-oldest)*(1-ratio))
}

// Probability is the chance that sw on a host of the given level is vulnerable.
func Probability(sw *domain.Software, level domain.SecurityLevel, now time.Time) float64 {
	return domain.VulnerabilityProbability(sw.AgeDays(now)) * level.VulnerabilityModifier()
}

// GenerateVulnerabilities runs one trial per installed program and attaches a
// single matching catalog vulnerability to the winners. It runs once per host;
// later calls are no-ops.
func (g *Generator) GenerateVulnerabilities(ctx context.Context, host *domain.Host) error {
	if !host.MarkVulnerabilitiesGenerated() {
		return nil
	}
	rng := host.Rand()
	now := g.now()
	for _, sw := range host.Software() {
		if sw.VulnerabilitiesPopulated() {
			continue
		}
		if rng.Float64() >= Probability(sw, host.Level, now) {
			sw.AssignVulnerabilities(nil)
			continue
		}
		candidates, err := g.matcher.Match(ctx, sw)
		if err != nil {
			slog.Warn("Vulnerability lookup failed", "host", host.Hostname, "software", sw.Name, "error", err)
			sw.AssignVulnerabilities(nil)
			continue
		}
		if len(candidates) == 0 {
			sw.AssignVulnerabilities(nil)
			continue
		}
		pick := candidates[rng.Intn(len(candidates))]
		sw.AssignVulnerabilities([]domain.Vulnerability{pick})
	}
	return nil
}

// Plant attaches a specific catalog vulnerability to software, bypassing the
// random trial. World definitions use it to guarantee an entry point.
func (g *Generator) Plant(ctx context.Context, sw *domain.Software, cve string) error {
	candidates, err := g.matcher.Match(ctx, sw)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(candidates, func(v domain.Vulnerability) bool {
		return strings.EqualFold(v.CVE, cve)
	})
	if idx < 0 {
		return fmt.Errorf("%w: %s does not affect %s", domain.ErrVulnerabilityUnknown, cve, sw)
	}
	sw.AssignVulnerabilities([]domain.Vulnerability{candidates[idx]})
	return nil
}
