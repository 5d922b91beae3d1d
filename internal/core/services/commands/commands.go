// Package commands implements the shell command set of the simulation.
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/reporting"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
)

var ErrUsage = errors.New("usage")

// Deps is everything the command set acts on.
type Deps struct {
	World   *world.World
	Reports *reporting.ReportGenerator

	// Exporter and Store are optional; without them report only prints.
	Exporter ports.ReportExporter
	Store    ports.ReportStore

	// Quit ends the game once the player confirmed.
	Quit func()
}

// All builds one instance of every command.
func All(d Deps) []shell.Command {
	quit := d.Quit
	if quit == nil {
		quit = func() {}
	}
	w := d.World
	return []shell.Command{
		// filesystem
		&lsCommand{info: info{"ls", "List directory contents", "ls [-l] [-a] [dir]"}},
		&cdCommand{info: info{"cd", "Change the current directory", "cd [dir]"}},
		&pwdCommand{info: info{"pwd", "Print the current directory", "pwd"}},
		&mkdirCommand{info: info{"mkdir", "Create directories", "mkdir [-p] <dir>..."}},
		&touchCommand{info: info{"touch", "Create empty files or update timestamps", "touch <file>..."}},
		&catCommand{info: info{"cat", "Print file contents", "cat <file>..."}},

		// text
		&grepCommand{info: info{"grep", "Print lines matching a pattern", "grep [-i] [-v] [-n] [-c] <pattern> [file]..."}},
		&wcCommand{info: info{"wc", "Count lines, words and characters", "wc [-l] [-w] [-c] [file]"}},
		&echoCommand{info: info{"echo", "Print arguments", "echo [-n] [text]..."}},
		&trueCommand{info: info{"true", "Do nothing, successfully", "true"}},
		&falseCommand{info: info{"false", "Do nothing, unsuccessfully", "false"}},

		// shell
		&aliasCommand{info: info{"alias", "Define, list or remove aliases", "alias [name=value] | alias -r <name>"}},
		&helpCommand{info: info{"help", "Show available commands", "help [command]"}},
		&clearCommand{info: info{"clear", "Clear the terminal", "clear"}},
		&gumCommand{info: info{"gum", "Interactive prompts", "gum choose|confirm|file [--title t] [--prompt p] [args]..."}},
		&quitCommand{info: info{"quit", "Leave the game", "quit [-s|--save] [-n|--no-save]"}, world: w, quit: quit},

		// network
		&sshCommand{info: info{"ssh", "Open a remote shell on a host", "ssh [user@]<host>"}, world: w},
		&exitCommand{info: info{"exit", "Close the current remote session", "exit"}, world: w},
		&nmapCommand{info: info{"nmap", "Scan a host for open ports", "nmap <host>"}, world: w},
		&netstatCommand{info: info{"netstat", "Show devices and connections of the current network", "netstat [-a] [-d]"}, world: w},
		&networksCommand{info: info{"networks", "Show known networks", "networks [--available] [--connected] [--discovered]"}, world: w},
		&vpnConnectCommand{info: info{"vpn-connect", "Connect to a network over VPN", "vpn-connect <network> [--config <file>]"}, world: w},
		&disconnectCommand{info: info{"disconnect", "Leave the current network", "disconnect"}, world: w},
		&connectionsCommand{info: info{"connections", "Show active network connections", "connections"}, world: w},
		&psCommand{info: info{"ps", "List running processes", "ps [aux]"}, world: w},

		// offense
		&vulnScanCommand{info: info{"vuln-scan", "Scan a host for vulnerabilities", "vuln-scan <host> [port]"}, world: w},
		&vulnsCommand{info: info{"vulns", "Show the vulnerability inventory", "vulns [--sort=severity|date|cve]"}, world: w},
		&exploitCommand{info: info{"exploit", "Exploit a scanned vulnerability", "exploit <host> <cve>"}, world: w},
		&ownedCommand{info: info{"owned", "List compromised systems", "owned"}, world: w},
		&scanCredsCommand{info: info{"scan-creds", "Search a controlled host for credentials", "scan-creds [host]"}, world: w},
		&credsCommand{info: info{"creds", "Show stored credentials", "creds [network]"}, world: w},
		&reportCommand{
			info:     info{"report", "Summarise the engagement", "report [--pdf]"},
			reports:  d.Reports,
			exporter: d.Exporter,
			store:    d.Store,
		},
	}
}

// Register adds the whole command set to r.
func Register(r *shell.Registry, d Deps) error {
	return r.Register(All(d)...)
}

// info carries the static help text of a command.
type info struct {
	name        string
	description string
	usage       string
}

func (i info) Name() string        { return i.name }
func (i info) Description() string { return i.description }
func (i info) Usage() string       { return i.usage }

func (i info) usageError() error {
	return fmt.Errorf("%w: %s", ErrUsage, i.usage)
}

// pipes marks a command as accepting piped input.
type pipes struct{}

func (pipes) ReadsPipe() bool { return true }

// splitLines breaks text into lines without the empty element that a
// trailing newline would produce.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// withNewline terminates text with exactly one newline unless it is empty.
func withNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

func pad(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
