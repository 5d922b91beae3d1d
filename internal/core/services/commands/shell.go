package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
)

type aliasCommand struct{ info }

func (c *aliasCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	aliases := inv.Engine().Aliases()

	if len(inv.Args) == 0 {
		names := aliases.Names()
		if len(names) == 0 {
			inv.Println("No aliases defined.")
			return nil
		}
		for _, name := range names {
			value, _ := aliases.Get(name)
			inv.Printf("%s='%s'\n", name, value)
		}
		return nil
	}

	if inv.Args[0] == "-r" {
		if len(inv.Args) < 2 {
			return c.usageError()
		}
		if err := aliases.Remove(inv.Args[1]); err != nil {
			return err
		}
		inv.Printf("Alias removed: %s\n", inv.Args[1])
		return nil
	}

	def := strings.Join(inv.Args, " ")
	if err := aliases.Define(def); err != nil {
		return err
	}
	name, _, _ := strings.Cut(def, "=")
	value, _ := aliases.Get(strings.TrimSpace(name))
	inv.Printf("Alias created: %s='%s'\n", strings.TrimSpace(name), value)
	return nil
}

type helpCommand struct{ info }

func (c *helpCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	registry := inv.Engine().Registry()

	if len(inv.Args) == 0 {
		inv.Println("Available commands:")
		inv.Println("")
		for _, cmd := range registry.Commands() {
			inv.Colorf(domain.ColorBlue, "%-12s", cmd.Name())
			inv.Printf(" - %s\n", cmd.Description())
		}
		inv.Println("")
		inv.Println("Type 'help <command>' for more information about a specific command.")
		return nil
	}

	name := strings.ToLower(inv.Args[0])
	cmd, ok := registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' to list commands)", name)
	}
	inv.Colorf(domain.ColorBlue, "%s\n", cmd.Name())
	inv.Printf("  %s\n", cmd.Description())
	inv.Printf("  Usage: %s\n", cmd.Usage())
	return nil
}

type clearCommand struct{ info }

func (c *clearCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	inv.Out.Clear()
	return nil
}

type quitCommand struct {
	info
	world *world.World
	quit  func()
}

// Execute leaves the game. Without a flag it asks whether to save first.
func (c *quitCommand) Execute(ctx context.Context, inv *shell.Invocation) error {
	if len(inv.Args) > 0 {
		switch strings.ToLower(inv.Args[0]) {
		case "-s", "--save":
			inv.Println("Saving game...")
			if err := c.world.Player().Save(ctx); err != nil {
				return fmt.Errorf("save failed: %w", err)
			}
			inv.Println("Game saved. Exiting game...")
			c.quit()
			return nil
		case "-n", "--no-save":
			inv.Println("Exiting game without saving...")
			c.quit()
			return nil
		default:
			return c.usageError()
		}
	}

	inv.Await("Save progress before quitting? (y/n) ", func(ctx context.Context, line string, out ports.OutputSink) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			out.AppendText("Saving game...\n")
			if err := c.world.Player().Save(ctx); err != nil {
				slog.Error("Save before quit failed", "error", err)
				return true, fmt.Errorf("save failed: %w", err)
			}
			out.AppendText("Game saved. Exiting game...\n")
		case "n", "no":
			out.AppendText("Exiting game without saving...\n")
		case "c", "cancel", "escape":
			out.AppendText("Quit cancelled\n")
			return true, nil
		default:
			out.AppendText("Please answer y or n: ")
			return false, nil
		}
		c.quit()
		return true, nil
	})
	return nil
}
