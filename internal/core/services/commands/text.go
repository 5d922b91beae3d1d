package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
)

type grepCommand struct {
	info
	pipes
}

// Execute filters lines by a regular expression. Finding nothing is not a
// failure, so a following pipe stage still runs.
func (c *grepCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	var (
		ignoreCase, invert, number, count bool
		rest                              []string
	)
	for _, a := range inv.Args {
		if len(rest) == 0 && strings.HasPrefix(a, "-") && len(a) > 1 {
			for _, f := range a[1:] {
				switch f {
				case 'i':
					ignoreCase = true
				case 'v':
					invert = true
				case 'n':
					number = true
				case 'c':
					count = true
				default:
					return fmt.Errorf("grep: invalid option -- '%c'", f)
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 || (len(rest) == 1 && !inv.Piped) {
		return c.usageError()
	}

	pattern := rest[0]
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("grep: invalid pattern: %v", err)
	}

	var text string
	if len(rest) > 1 {
		tree := inv.Engine().CurrentFileTree()
		var b strings.Builder
		for _, p := range rest[1:] {
			content, err := tree.ReadFile(p)
			if err != nil {
				return err
			}
			b.WriteString(withNewline(content))
		}
		text = b.String()
	} else {
		text = inv.Input
	}

	matches := 0
	for i, line := range splitLines(text) {
		if re.MatchString(line) == invert {
			continue
		}
		matches++
		if count {
			continue
		}
		if number {
			inv.Printf("%d:%s\n", i+1, line)
		} else {
			inv.Println(line)
		}
	}
	if count {
		inv.Println(strconv.Itoa(matches))
	}
	return nil
}

type wcCommand struct {
	info
	pipes
}

// Execute counts lines, words and characters of a file or of piped input.
func (c *wcCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	lines, words, chars := true, true, true
	var path string
	for _, a := range inv.Args {
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			lines, words, chars = false, false, false
			for _, f := range a[1:] {
				switch f {
				case 'l':
					lines = true
				case 'w':
					words = true
				case 'c':
					chars = true
				default:
					return fmt.Errorf("wc: invalid option -- '%c'", f)
				}
			}
			continue
		}
		path = a
	}

	text := inv.Input
	switch {
	case path != "":
		content, err := inv.Engine().CurrentFileTree().ReadFile(path)
		if err != nil {
			return err
		}
		text = content
	case !inv.Piped:
		return c.usageError()
	}

	var fields []string
	if lines {
		fields = append(fields, fmt.Sprintf("Lines: %d", len(splitLines(text))))
	}
	if words {
		fields = append(fields, fmt.Sprintf("Words: %d", len(strings.Fields(text))))
	}
	if chars {
		fields = append(fields, fmt.Sprintf("Chars: %d", len(text)))
	}
	inv.Println(strings.Join(fields, "  "))
	return nil
}

type echoCommand struct{ info }

func (c *echoCommand) Execute(_ context.Context, inv *shell.Invocation) error {
	args := inv.Args
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if newline {
		out += "\n"
	}
	inv.Print(out)
	return nil
}

type trueCommand struct{ info }

func (c *trueCommand) Execute(context.Context, *shell.Invocation) error { return nil }

type falseCommand struct{ info }

func (c *falseCommand) Execute(context.Context, *shell.Invocation) error { return shell.ErrSilent }
