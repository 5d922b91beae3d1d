package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CommandsTotal counts dispatched shell commands
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "commands_total",
			Help:      "Total number of shell commands dispatched",
		},
		[]string{"command", "status"},
	)

	// ConnectionsTotal counts network connection attempts by outcome
	ConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "connections_total",
			Help:      "Total number of simulated network connection attempts",
		},
		[]string{"type", "status"},
	)

	// AccessLockouts counts access profiles locked after repeated failures
	AccessLockouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "access_lockouts_total",
			Help:      "Total number of network access lockouts",
		},
		[]string{"network"},
	)

	// VulnerabilitiesGenerated counts vulnerabilities attached to installed software
	VulnerabilitiesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "vulnerabilities_generated_total",
			Help:      "Total number of vulnerabilities attached to host software",
		},
		[]string{"level"},
	)

	// HostsCompromised counts hosts on which root access was gained
	HostsCompromised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "hosts_compromised_total",
			Help:      "Total number of hosts compromised by the player",
		},
		[]string{"network"},
	)

	// CredentialsFound counts credentials extracted by the scanner
	CredentialsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "credentials_found_total",
			Help:      "Total number of credentials extracted from host filesystems",
		},
		[]string{"type"},
	)

	// CluesRecorded counts distinct clues accepted by the discovery ledger
	CluesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netcity",
			Name:      "clues_recorded_total",
			Help:      "Total number of distinct discovery clues recorded",
		},
		[]string{"type"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		// Already-registered errors are ignored so tests can call this freely
		prometheus.DefaultRegisterer.Register(CommandsTotal)
		prometheus.DefaultRegisterer.Register(ConnectionsTotal)
		prometheus.DefaultRegisterer.Register(AccessLockouts)
		prometheus.DefaultRegisterer.Register(VulnerabilitiesGenerated)
		prometheus.DefaultRegisterer.Register(HostsCompromised)
		prometheus.DefaultRegisterer.Register(CredentialsFound)
		prometheus.DefaultRegisterer.Register(CluesRecorded)
	})
}
