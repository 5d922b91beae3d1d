package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
)

type lsCommand struct{ info }

func (c *lsCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	var long, all bool
	path := "."
	for _, a := range inv.Args {
		switch {
		case strings.HasPrefix(a, "-") && len(a) > 1:
			for _, f := range a[1:] {
				switch f {
				case 'l':
					long = true
				case 'a':
					all = true
				default:
					return fmt.Errorf("ls: invalid option -- '%c'", f)
				}
			}
		default:
			path = a
		}
	}

	entries, err := inv.Engine().CurrentFileTree().List(path)
	if err != nil {
		return err
	}
	for _, n := range entries {
		if !all && strings.HasPrefix(n.Name, ".") {
			continue
		}
		if long {
			kind := "-"
			if n.IsDir {
				kind = "d"
			}
			inv.Printf("%s%s %-6s %6d %s ", kind, n.Permissions, n.Owner, n.Size(), n.ModifiedAt.Format("Jan _2 15:04"))
		}
		if n.IsDir {
			inv.Colorf(domain.ColorBlue, "[DIR] %s\n", n.Name)
		} else {
			inv.Println(n.Name)
		}
	}
	return nil
}

type cdCommand struct{ info }

func (c *cdCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	path := "~"
	if len(inv.Args) > 0 {
		path = inv.Args[0]
	}
	return inv.Engine().CurrentFileTree().ChangeDirectory(path)
}

type pwdCommand struct{ info }

func (c *pwdCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	inv.Println(inv.Engine().CurrentPath())
	return nil
}

type mkdirCommand struct{ info }

func (c *mkdirCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	parents := false
	var paths []string
	for _, a := range inv.Args {
		if a == "-p" {
			parents = true
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) == 0 {
		return c.usageError()
	}

	tree := inv.Engine().CurrentFileTree()
	for _, p := range paths {
		var err error
		if parents {
			_, err = tree.MkdirAll(p)
		} else {
			_, err = tree.CreateDirectory(p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type touchCommand struct{ info }

func (c *touchCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		return c.usageError()
	}
	tree := inv.Engine().CurrentFileTree()
	for _, p := range inv.Args {
		if _, err := tree.Touch(p); err != nil {
			return err
		}
	}
	return nil
}

type catCommand struct {
	info
	pipes
}

// Execute prints each file. Without arguments it passes piped input through.
func (c *catCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	if len(inv.Args) == 0 {
		if inv.Piped {
			inv.Print(inv.Input)
			return nil
		}
		return c.usageError()
	}

	tree := inv.Engine().CurrentFileTree()
	failed := false
	for _, p := range inv.Args {
		content, err := tree.ReadFile(p)
		if err != nil {
			inv.Colorf(domain.ColorRed, "Error: %v\n", err)
			failed = true
			continue
		}
		inv.Print(withNewline(content))
	}
	if failed {
		return shell.ErrSilent
	}
	return nil
}
