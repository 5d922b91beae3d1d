package domain

import (
	"hash/fnv"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"time"
)

// DeviceType selects the software profile a host is generated with.
type DeviceType string

const (
	DeviceServer   DeviceType = "server"
	DeviceDesktop  DeviceType = "desktop"
	DeviceStorage  DeviceType = "storage"
	DeviceEmbedded DeviceType = "embedded"
	DeviceRouter   DeviceType = "router"
)

// DeviceCategory is the broad class shown in device listings.
type DeviceCategory string

const (
	CategoryWorkstation       DeviceCategory = "Workstation"
	CategoryServer            DeviceCategory = "Server"
	CategoryRouter            DeviceCategory = "Router"
	CategoryIoTDevice         DeviceCategory = "IoTDevice"
	CategoryMobileDevice      DeviceCategory = "MobileDevice"
	CategoryEmbeddedSystem    DeviceCategory = "EmbeddedSystem"
	CategoryIndustrialControl DeviceCategory = "IndustrialControl"
)

// Category maps a device type onto its display category.
func (t DeviceType) Category() DeviceCategory {
	switch t {
	case DeviceDesktop:
		return CategoryWorkstation
	case DeviceRouter:
		return CategoryRouter
	case DeviceEmbedded:
		return CategoryIoTDevice
	default:
		return CategoryServer
	}
}

// RootMarkerPath is written once when root access is first granted.
const RootMarkerPath = "/root/.owned"

// HostSpec is the static description a Host is built from.
type HostSpec struct {
	Name        string        `yaml:"name" validate:"required"`
	Hostname    string        `yaml:"hostname" validate:"required,hostname_rfc1123"`
	IP          string        `yaml:"ip" validate:"required,ip"`
	Type        DeviceType    `yaml:"type" validate:"required,oneof=server desktop storage embedded router"`
	DefaultUser string        `yaml:"user"`
	Level       SecurityLevel `yaml:"security"`
}

// Host is one simulated machine.
type Host struct {
	Name        string
	Hostname    string
	IP          string
	Type        DeviceType
	DefaultUser string
	Level       SecurityLevel
	CreatedAt   time.Time
	FS          *FileTree

	// Accounts maps user names to password hashes.
	Accounts map[string]string

	software       []*Software
	rootAccess     bool
	vulnsGenerated bool
	rng            *rand.Rand
}

// HostSeed derives the per-host generator seed from its identity.
func HostSeed(hostname string, level SecurityLevel) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(hostname)))
	h.Write([]byte{':', byte(level)})
	return int64(h.Sum64())
}

// NewHost builds a host with an empty filesystem. salt lets a world vary all
// hosts at once while each host stays reproducible.
func NewHost(spec HostSpec, now time.Time, salt int64) *Host {
	user := spec.DefaultUser
	if user == "" {
		user = DefaultOwner
	}
	rng := rand.New(rand.NewSource(HostSeed(spec.Hostname, spec.Level) ^ salt))
	minDays, maxDays := spec.Level.AgeRange()
	age := minDays + rng.Intn(maxDays-minDays+1)

	return &Host{
		Name:        spec.Name,
		Hostname:    spec.Hostname,
		IP:          spec.IP,
		Type:        spec.Type,
		DefaultUser: user,
		Level:       spec.Level,
		CreatedAt:   now.AddDate(0, 0, -age),
		FS:          NewFileTree(),
		Accounts:    make(map[string]string),
		rng:         rng,
	}
}

// Rand is the host's own seeded generator. Every random decision about the
// host goes through it so the whole host is reproducible.
func (h *Host) Rand() *rand.Rand {
	return h.rng
}

func (h *Host) InstallSoftware(s *Software) {
	h.software = append(h.software, s)
}

func (h *Host) Software() []*Software {
	return slices.Clone(h.software)
}

// FindSoftware looks installed software up by name, case-insensitively.
func (h *Host) FindSoftware(name string) (*Software, bool) {
	for _, s := range h.software {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// OpenPorts lists the ports of running software in ascending order.
func (h *Host) OpenPorts() []int {
	var ports []int
	for _, s := range h.software {
		if !s.Running {
			continue
		}
		for _, p := range s.Ports {
			if !slices.Contains(ports, p) {
				ports = append(ports, p)
			}
		}
	}
	sort.Ints(ports)
	return ports
}

// SoftwareOnPort returns the first running software listening on port.
func (h *Host) SoftwareOnPort(port int) *Software {
	for _, s := range h.software {
		if s.Running && s.ListensOn(port) {
			return s
		}
	}
	return nil
}

func (h *Host) HasRootAccess() bool {
	return h.rootAccess
}

// GrantRootAccess flips root access on. It reports false when the host was
// already owned, in which case nothing is written.
func (h *Host) GrantRootAccess() bool {
	if h.rootAccess {
		return false
	}
	h.rootAccess = true
	_, _ = h.FS.WriteFile(RootMarkerPath, "owned\n")
	return true
}

func (h *Host) VulnerabilitiesGenerated() bool {
	return h.vulnsGenerated
}

// MarkVulnerabilitiesGenerated sets the generation guard and reports whether
// it was previously unset.
func (h *Host) MarkVulnerabilitiesGenerated() bool {
	if h.vulnsGenerated {
		return false
	}
	h.vulnsGenerated = true
	return true
}

// Vulnerabilities flattens the vulnerabilities of all installed software.
func (h *Host) Vulnerabilities() []Vulnerability {
	var out []Vulnerability
	for _, s := range h.software {
		out = append(out, s.Vulnerabilities()...)
	}
	return out
}

// HasCVE reports whether any installed software carries the CVE.
func (h *Host) HasCVE(cve string) bool {
	return slices.ContainsFunc(h.software, func(s *Software) bool { return s.HasCVE(cve) })
}
