package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/player"
	"github.com/lcalzada-xor/netcity/internal/core/services/reporting"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
)

var errNoExporter = errors.New("PDF export is not available in this build")

type vulnScanCommand struct {
	info
	world *world.World
}

func (c *vulnScanCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	target := inv.Args[0]
	port := 0
	if len(inv.Args) > 1 {
		p, err := strconv.Atoi(inv.Args[1])
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid port: %s", inv.Args[1])
		}
		port = p
	}

	host, err := c.world.ResolveHost(target)
	if err != nil {
		return err
	}
	inv.Printf("Scanning %s for vulnerabilities...\n\n", host.Hostname)
	found, err := c.world.ScanVulnerabilities(ctx, host.Hostname, port)
	if err != nil {
		return err
	}

	byPort := make(map[int][]domain.VulnerabilityRecord)
	for _, r := range found {
		byPort[r.Port] = append(byPort[r.Port], r)
	}
	scanned := host.OpenPorts()
	if port > 0 {
		scanned = []int{port}
	}
	for _, p := range scanned {
		sw := host.SoftwareOnPort(p)
		if sw == nil {
			continue
		}
		inv.Printf("Checking %s v%s on port %d...\n", sw.Name, sw.Version.String(), p)
		if len(byPort[p]) == 0 {
			inv.Println("No vulnerabilities found.")
			inv.Println("")
			continue
		}
		for _, r := range byPort[p] {
			inv.Colorf(domain.ColorRed, "[VULNERABLE] %s: %s (Severity: %.1f/10)\n", r.CVE, r.Name, r.Severity)
			inv.Printf("  %s\n", r.Description)
		}
		inv.Println("")
	}

	if len(found) == 0 {
		inv.Println("No vulnerabilities were found on this system.")
		return nil
	}
	inv.Println("Vulnerabilities added to your database.")
	inv.Println("Use 'vulns' command to view your vulnerability inventory.")
	return nil
}

type vulnsCommand struct {
	info
	world *world.World
}

func (c *vulnsCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	sortBy := "date"
	for _, a := range inv.Args {
		v, ok := strings.CutPrefix(a, "--sort=")
		if !ok {
			return c.usageError()
		}
		sortBy = strings.ToLower(v)
	}

	records := c.world.Player().Inventory()
	if len(records) == 0 {
		inv.Println("No vulnerabilities in database. Use 'vuln-scan' to find vulnerabilities.")
		return nil
	}

	switch sortBy {
	case "severity":
		sort.SliceStable(records, func(i, j int) bool { return records[i].Severity > records[j].Severity })
	case "cve":
		sort.SliceStable(records, func(i, j int) bool { return records[i].CVE < records[j].CVE })
	case "date":
		sort.SliceStable(records, func(i, j int) bool { return records[i].DiscoveredAt.After(records[j].DiscoveredAt) })
	default:
		return fmt.Errorf("unknown sort key %q (severity, date or cve)", sortBy)
	}
	inv.Print(player.FormatInventory(records))
	return nil
}

type exploitCommand struct {
	info
	world *world.World
}

func (c *exploitCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	if len(inv.Args) < 2 {
		return c.usageError()
	}
	hostname, cve := inv.Args[0], strings.ToUpper(inv.Args[1])

	inv.Printf("Exploiting %s on %s...\n", cve, hostname)
	newly, err := c.world.Exploit(ctx, hostname, cve)
	if err != nil {
		return fmt.Errorf("exploit failed: %w", err)
	}
	if !newly {
		inv.Colorf(domain.ColorYellow, "You already have root access on %s.\n", hostname)
		return nil
	}
	inv.Colorf(domain.ColorGreen, "Exploit successful! Root access granted on %s.\n", hostname)
	inv.Println("Use 'scan-creds " + hostname + "' to search it for credentials.")
	return nil
}

type ownedCommand struct {
	info
	world *world.World
}

func (c *ownedCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	hosts := c.world.Player().CompromisedHosts()
	if len(hosts) == 0 {
		inv.Println("You haven't compromised any systems yet.")
		inv.Println("Use 'vuln-scan' to find vulnerabilities and 'exploit' to gain access.")
		return nil
	}

	inv.Colorf(domain.ColorGreen, "COMPROMISED SYSTEMS\n===================\n\n")
	inv.Colorf(domain.ColorBlue, "HOSTNAME             IP ADDRESS         ACCESS LEVEL\n")
	inv.Println("------------------------------------------------------------")
	for _, name := range hosts {
		host, err := c.world.ResolveHost(name)
		if err != nil {
			inv.Printf("%s %s %s\n", pad(name, 20), pad("unknown", 18), "ROOT")
			continue
		}
		inv.Printf("%s %s ", pad(host.Hostname, 20), pad(host.IP, 18))
		inv.Colorf(domain.LevelColor(host.Level), "%s", pad(host.Level.String(), 12))
		access := "USER"
		if c.world.Player().HasRootAccess(host.Hostname) {
			access = "ROOT"
		}
		inv.Printf(" %s\n", access)
	}
	return nil
}

type scanCredsCommand struct {
	info
	world *world.World
}

// Execute searches a controlled host for credentials and network clues. New
// networks revealed by the scan are announced.
func (c *scanCredsCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	target := c.world.ActiveHost().Hostname
	if len(inv.Args) > 0 {
		target = inv.Args[0]
	}

	known := make(map[string]bool)
	for _, n := range c.world.DiscoveredNetworks() {
		known[n.ID] = true
	}

	inv.Printf("Scanning %s for credentials...\n", target)
	results, err := c.world.ScanHost(ctx, target)
	if err != nil {
		return err
	}
	inv.Printf("Scanned %d files.\n\n", results.ScannedFiles)

	if len(results.Credentials) == 0 {
		inv.Println("No credentials found.")
	} else {
		inv.Colorf(domain.ColorGreen, "Found %d credential(s):\n", len(results.Credentials))
		for _, cred := range results.Credentials {
			inv.Printf("  %s\n", cred.Display())
		}
	}

	if len(results.Clues) > 0 {
		inv.Println("")
		inv.Printf("Found %d network clue(s):\n", len(results.Clues))
		for _, clue := range results.Clues {
			inv.Colorf(domain.ColorGray, "  [%s] %s (%s)\n", clue.Kind, clue.NetworkID, clue.SourceFile)
		}
	}

	for _, n := range c.world.DiscoveredNetworks() {
		if !known[n.ID] {
			inv.Colorf(domain.ColorCyan, "New network discovered: %s (%s)\n", n.Metadata.Name, n.ID)
		}
	}
	return nil
}

type credsCommand struct {
	info
	world *world.World
}

func (c *credsCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	all := c.world.Player().Credentials()
	if len(inv.Args) > 0 {
		id := inv.Args[0]
		nc, ok := all[id]
		if !ok || nc.Count() == 0 {
			inv.Printf("No credentials stored for %s.\n", id)
			return nil
		}
		all = map[string]domain.NetworkCredentials{id: nc}
	}
	if len(all) == 0 {
		inv.Println("No credentials found yet. Use 'scan-creds' on compromised systems.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	inv.Println("STORED CREDENTIALS")
	inv.Println("==================")
	for _, id := range ids {
		inv.Println("")
		inv.Colorf(domain.ColorBlue, "[%s]\n", id)
		for _, cred := range all[id].All() {
			inv.Printf("  %s\n", cred.Display())
		}
	}
	return nil
}

type reportCommand struct {
	info
	reports  *reporting.ReportGenerator
	exporter ports.ReportExporter
	store    ports.ReportStore
}

// Execute prints the engagement summary. With --pdf the report is also
// rendered by the exporter and written to the report store.
func (c *reportCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	pdf := false
	for _, a := range inv.Args {
		if a != "--pdf" {
			return c.usageError()
		}
		pdf = true
	}

	r, err := c.reports.Generate(ctx)
	if err != nil {
		return err
	}
	inv.Print(reporting.FormatSummary(r))
	if !pdf {
		return nil
	}

	if c.exporter == nil || c.store == nil {
		return errNoExporter
	}
	data, err := c.exporter.Export(r)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	name := fmt.Sprintf("engagement_%s.%s", r.Metadata.GeneratedAt.Format("20060102_150405"), c.exporter.Extension())
	path, err := c.store.Save(ctx, name, data)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	inv.Colorf(domain.ColorGreen, "Report written to %s\n", path)
	return nil
}
