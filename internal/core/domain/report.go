package domain

import "time"

// ReportMetadata identifies a generated report.
type ReportMetadata struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	GeneratedBy string
}

// VulnerabilityStats counts inventory entries per severity bucket.
type VulnerabilityStats struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

// CompromisedHost is a row of the engagement report.
type CompromisedHost struct {
	Hostname string
	IP       string
	Network  string
	Level    SecurityLevel
	Root     bool
}

// EngagementReport summarises what the player has achieved so far.
type EngagementReport struct {
	Metadata             ReportMetadata
	RiskScore            float64
	RiskLevel            string
	NetworksTotal        int
	NetworksDiscovered   []string
	CompromisedHosts     []CompromisedHost
	Vulnerabilities      []VulnerabilityRecord
	TopVulnerabilities   []VulnerabilityRecord
	VulnStats            VulnerabilityStats
	CredentialsCollected int
	NextSteps            []string
}
