package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
)

var (
	errNoOptions = errors.New("no options provided for choose")
	errNoFiles   = errors.New("no files found in the directory")
)

const gumHint = "\nType up/down (or k/j) to move, enter to select, a number to pick directly, escape to cancel\n"

type gumCommand struct{ info }

// gumMenu is the state of one running choose or file prompt.
type gumMenu struct {
	title    string
	prompt   string
	options  []string
	selected int
}

func (m *gumMenu) render(out ports.OutputSink) {
	out.Clear()
	if m.title != "" {
		out.AppendText(m.title + "\n")
	}
	if m.prompt != "" {
		out.AppendText(m.prompt + "\n")
	}
	for i, opt := range m.options {
		if i == m.selected {
			out.SetColor(domain.ColorCyan)
			out.AppendText("> " + opt + "\n")
			out.SetColor(domain.ColorDefault)
			continue
		}
		out.AppendText("  " + opt + "\n")
	}
	out.AppendText(gumHint)
}

// handle moves the cursor or finishes the menu.
func (m *gumMenu) handle(_ context.Context, line string, out ports.OutputSink) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(line))
	switch key {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.options)-1 {
			m.selected++
		}
	case "", "enter":
		out.Clear()
		out.AppendText(m.options[m.selected] + "\n")
		return true, nil
	case "escape", "esc", "q":
		out.Clear()
		out.AppendText("Cancelled\n")
		return true, shell.ErrSilent
	default:
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > len(m.options) {
			out.AppendText("Unknown key: " + line + "\n")
			return false, nil
		}
		m.selected = n - 1
		out.Clear()
		out.AppendText(m.options[m.selected] + "\n")
		return true, nil
	}
	m.render(out)
	return false, nil
}

func (c *gumCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	style := strings.ToLower(inv.Args[0])
	opts, positional := parseGumArgs(inv.Args[1:])

	switch style {
	case "choose":
		if len(positional) == 0 {
			return errNoOptions
		}
		m := &gumMenu{title: opts["--title"], prompt: opts["--prompt"], options: positional}
		m.render(inv.Out)
		inv.Await("", m.handle)
		return nil

	case "confirm":
		prompt := opts["--prompt"]
		if prompt == "" {
			prompt = "Confirm?"
		}
		if t := opts["--title"]; t != "" {
			inv.Println(t)
		}
		inv.Await(prompt+" (y/n): ", func(_ context.Context, line string, out ports.OutputSink) (bool, error) {
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				out.AppendText("yes\n")
				return true, nil
			default:
				out.AppendText("no\n")
				return true, shell.ErrSilent
			}
		})
		return nil

	case "file":
		dir := "."
		if len(positional) > 0 {
			dir = positional[0]
		}
		entries, err := inv.Engine().CurrentFileTree().List(dir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errNoFiles
		}
		prompt := opts["--prompt"]
		if prompt == "" {
			prompt = "Select a file:"
		}
		m := &gumMenu{title: opts["--title"], prompt: prompt}
		for _, n := range entries {
			name := n.Name
			if n.IsDir {
				name += "/"
			}
			m.options = append(m.options, name)
		}
		m.render(inv.Out)
		inv.Await("", m.handle)
		return nil

	default:
		return c.usageError()
	}
}

// parseGumArgs separates --title/--prompt values from positional arguments.
func parseGumArgs(args []string) (map[string]string, []string) {
	opts := make(map[string]string)
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--") {
			if name, value, ok := strings.Cut(a, "="); ok {
				opts[name] = value
				continue
			}
			if i+1 < len(args) {
				opts[a] = args[i+1]
				i++
			}
			continue
		}
		positional = append(positional, a)
	}
	return opts, positional
}
