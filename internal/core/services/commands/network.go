package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/scanner"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
)

// maxPasswordAttempts is how many passwords ssh asks for before giving up.
const maxPasswordAttempts = 3

var errPermissionDenied = errors.New("permission denied (publickey,password)")

type sshCommand struct {
	info
	world *world.World
}

// Execute opens a session on a host of the current network. Stored
// credentials are tried first; otherwise the password is asked for.
func (c *sshCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	user, hostname, hasUser := strings.Cut(inv.Args[0], "@")
	if !hasUser {
		user, hostname = "", inv.Args[0]
	}

	host, err := c.world.ResolveHost(hostname)
	if err != nil {
		return err
	}
	if host == c.world.Local() {
		return fmt.Errorf("ssh: %s is the local machine", hostname)
	}
	if user == "" {
		user = host.DefaultUser
	}

	inv.Printf("Connecting to %s as %s...\n", host.Hostname, user)
	if cred, ok := c.world.LoginWithStoredCredentials(host, user); ok {
		method := "password"
		if cred.PrivateKey != "" {
			method = "private key"
		}
		inv.Colorf(domain.ColorGray, "Authenticated with stored %s.\n", method)
		c.open(ctx, host, user, inv.Out)
		return nil
	}

	attempts := 0
	inv.Await(fmt.Sprintf("%s@%s's password: ", user, host.Hostname), func(ctx context.Context, line string, out ports.OutputSink) (bool, error) {
		if strings.EqualFold(line, "escape") || line == "^C" {
			out.AppendText("Connection aborted\n")
			return true, shell.ErrSilent
		}
		if err := c.world.Login(host, user, line); err == nil {
			c.open(ctx, host, user, out)
			return true, nil
		}
		attempts++
		if attempts >= maxPasswordAttempts {
			return true, fmt.Errorf("%s@%s: %w", user, host.Hostname, errPermissionDenied)
		}
		out.AppendText("Permission denied, please try again.\n")
		out.AppendText(fmt.Sprintf("%s@%s's password: ", user, host.Hostname))
		return false, nil
	})
	return nil
}

func (c *sshCommand) open(ctx context.Context, host *domain.Host, user string, out ports.OutputSink) {
	s := c.world.OpenSession(ctx, host, user)
	out.SetColor(domain.ColorGreen)
	out.AppendText(fmt.Sprintf("Connected to %s (%s)\n", host.Name, host.IP))
	out.SetColor(domain.ColorDefault)
	if user == "root" {
		out.AppendText("You have root access on this system.\n")
	}
	out.AppendText(fmt.Sprintf("Logged in as %s. Type 'exit' to close the connection.\n", s.Prompt()))
}

type exitCommand struct {
	info
	world *world.World
}

func (c *exitCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	s, err := c.world.CloseSession()
	if err != nil {
		return fmt.Errorf("%w; use 'quit' to leave the game", err)
	}
	inv.Printf("Connection to %s closed.\n", s.Host.Hostname)
	return nil
}

type nmapCommand struct {
	info
	world *world.World
}

func (c *nmapCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	target := inv.Args[0]
	inv.Printf("Scanning %s for open ports...\n\n", target)

	host, err := c.world.ResolveHost(target)
	if err != nil {
		return err
	}
	ports := host.OpenPorts()
	if len(ports) == 0 {
		inv.Println("No open ports found.")
		return nil
	}

	inv.Println("PORT      SERVICE")
	inv.Println("------------------------------")
	for _, p := range ports {
		service := "unknown"
		if sw := host.SoftwareOnPort(p); sw != nil {
			service = sw.Name + " " + sw.Version.String()
		}
		inv.Printf("%-9s %s\n", fmt.Sprintf("%d/tcp", p), service)
	}
	return nil
}

type netstatCommand struct {
	info
	world *world.World
}

func (c *netstatCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	showAll := false
	for _, a := range inv.Args {
		switch a {
		case "-a":
			showAll = true
		case "-d":
		default:
			return fmt.Errorf("unknown option: %s (usage: %s)", a, c.usage)
		}
	}

	n := c.world.CurrentNetwork()
	inv.Colorf(domain.ColorCyan, "NETWORK DEVICES\n===============\n")
	devices := n.ListDevices()
	if len(devices) == 0 {
		inv.Println("No devices found on the network.")
	} else {
		inv.Println("HOST            IP ADDRESS         STATUS    TYPE")
		inv.Println("--------------------------------------------------------")
		for _, h := range devices {
			inv.Printf("%s %s %s %s\n", pad(h.Hostname, 15), pad(h.IP, 18), pad("online", 9), h.Type.Category())
		}
	}

	if showAll {
		inv.Println("")
		inv.Print(c.world.Connections().Report())
		for _, g := range n.Gateways() {
			inv.Printf("Gateway %s via %s (%s)\n", g.TargetNetwork, g.Hostname, g.Type)
		}
	}
	return nil
}

type networksCommand struct {
	info
	world *world.World
}

func (c *networksCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	showAvailable := slices.Contains(inv.Args, "--available")
	showConnected := slices.Contains(inv.Args, "--connected")
	showDiscovered := slices.Contains(inv.Args, "--discovered")
	if !showAvailable && !showConnected && !showDiscovered {
		showAvailable, showConnected, showDiscovered = true, true, true
	}

	current := c.world.CurrentNetwork()
	active := c.world.Connections().Active()
	linked := func(id string) bool {
		return slices.ContainsFunc(active, func(conn domain.NetworkConnection) bool { return conn.TargetNetwork == id })
	}

	inv.Println("NETWORK STATUS")
	inv.Println("==============")
	inv.Println("")

	if showConnected {
		inv.Printf("Current Network: %s (%s)\n", current.Metadata.Name, current.ID)
		inv.Printf("IP Range: %s\n", current.Metadata.IPRange)
		inv.Printf("Organization: %s\n", current.Metadata.Organization)
		inv.Printf("Security Level: %s\n\n", current.Security.Level)
	}

	if showAvailable {
		inv.Println("ACCESSIBLE NETWORKS:")
		inv.Colorf(domain.ColorGreen, "[CONNECTED] %s - %s\n", current.Metadata.Name, current.Metadata.Description)
		for _, conn := range active {
			if conn.TargetNetwork != current.ID {
				inv.Printf("[Available] Network %s - Connected via %s\n", conn.TargetNetwork, conn.Type)
			}
		}
		inv.Println("")
	}

	if showDiscovered {
		inv.Println("DISCOVERED NETWORKS (Credentials Required):")
		for _, n := range c.world.DiscoveredNetworks() {
			if n.ID == current.ID || linked(n.ID) {
				continue
			}
			inv.Colorf(domain.ColorYellow, "[LOCKED] %s - %s\n", n.Metadata.Name, n.Metadata.Description)
			inv.Printf("         Network ID: %s  Type: %s\n", n.ID, n.Metadata.Type)
		}
	}
	return nil
}

type vpnConnectCommand struct {
	info
	world *world.World
}

func (c *vpnConnectCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	id := inv.Args[0]
	var config string
	for i := 1; i < len(inv.Args); i++ {
		if inv.Args[i] == "--config" && i+1 < len(inv.Args) {
			config = inv.Args[i+1]
			break
		}
	}

	var vpn *domain.VPNCredential
	if config != "" {
		cred, err := c.fromConfig(config, id)
		if err != nil {
			return err
		}
		vpn = cred
	} else if stored, ok := c.world.Player().VPNCredentialFor(id); ok {
		vpn = stored
	}

	inv.Printf("Attempting VPN connection to network '%s'...\n", id)
	if vpn != nil {
		inv.Printf("Connecting to VPN server %s:%d...\n", vpn.Server, vpn.EffectivePort())
		inv.Printf("Authenticating with username '%s'...\n", vpn.Username)
	}

	conn, err := c.world.ConnectToNetwork(ctx, id, vpn)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialsRequired) {
			inv.Println("No VPN credentials found for this network.")
			inv.Println("Try searching compromised systems for configuration files or emails.")
		}
		return fmt.Errorf("VPN connection failed: %w", err)
	}

	n := c.world.CurrentNetwork()
	inv.Colorf(domain.ColorGreen, "VPN connection established!\n")
	inv.Printf("Connected to network: %s\n", n.Metadata.Name)
	inv.Printf("Your IP address is now in range: %s\n", n.Metadata.IPRange)
	inv.Colorf(domain.ColorGray, "%s, quality %d/100\n", conn.Description(), conn.QualityScore())
	return nil
}

// fromConfig reads an OpenVPN profile from the current filesystem. A usable
// profile is remembered like any found credential.
func (c *vpnConnectCommand) fromConfig(path, networkID string) (*domain.VPNCredential, error) {
	content, err := c.world.CurrentFileTree().ReadFile(path)
	if err != nil {
		return nil, err
	}
	rule := &scanner.OpenVPNRule{}
	findings := rule.Extract(scanner.File{Path: path, Content: content, Category: scanner.CategoryConfiguration})
	for _, cred := range findings.Credentials {
		vpn, ok := cred.(domain.VPNCredential)
		if !ok {
			continue
		}
		vpn.NetworkID = networkID
		vpn.SourceFile = path
		c.world.Player().StoreCredential(vpn, networkID)
		return &vpn, nil
	}
	return nil, fmt.Errorf("%s: no 'remote' line, not an OpenVPN profile", path)
}

type disconnectCommand struct {
	info
	world *world.World
}

func (c *disconnectCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	from := c.world.CurrentNetworkID()
	if err := c.world.Disconnect(); err != nil {
		return err
	}
	inv.Printf("Disconnected from %s. Back on the %s network.\n", from, c.world.CurrentNetworkID())
	return nil
}

type connectionsCommand struct {
	info
	world *world.World
}

func (c *connectionsCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	inv.Print(c.world.Connections().Report())
	return nil
}

type psCommand struct {
	info
	world *world.World
}

// Execute lists the processes of the active host. Load figures come from a
// generator seeded by the host identity so repeated calls agree.
func (c *psCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	detailed := len(inv.Args) > 0 && strings.TrimPrefix(inv.Args[0], "-") == "aux"
	host := c.world.ActiveHost()
	rng := rand.New(rand.NewSource(domain.HostSeed(host.Hostname, host.Level)))

	inv.Println("PID   USER     %CPU %MEM  COMMAND")
	inv.Println("----------------------------------------")
	inv.Printf("%-6d%-8s %.1f  %.1f  /sbin/init\n", 1, "root", 0.0, 0.1)
	inv.Printf("%-6d%-8s %.1f  %.1f  /usr/sbin/sshd\n", 2, "root", 0.0, 0.2)

	pid := 3
	for _, sw := range host.Software() {
		if !sw.Running {
			continue
		}
		user := host.DefaultUser
		if len(sw.Ports) > 0 {
			user = "root"
		}
		inv.Printf("%-6d%-8s %.1f  %.1f  %s\n", pid, pad(user, 8), 0.1+rng.Float64()*4.9, 0.1+rng.Float64()*7.9, sw.InstallPath)
		pid++
		if !detailed {
			continue
		}
		for _, p := range sw.Ports {
			inv.Printf("%-6d%-8s %.1f  %.1f  %s --port=%d\n", pid, pad(user, 8), 0.1+rng.Float64()*1.9, 0.1+rng.Float64()*3.9, sw.InstallPath, p)
			pid++
		}
	}
	return nil
}
