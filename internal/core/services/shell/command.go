package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

var (
	// ErrSilent fails a command without printing anything.
	ErrSilent = errors.New("")

	ErrCommandNotFound = errors.New("command not found")
	ErrPipeUnsupported = errors.New("doesn't support piped input")
	ErrInteractivePipe = errors.New("waits for input and cannot feed a pipe")
)

// Command is a named handler the engine can dispatch to.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Execute(ctx context.Context, inv *Invocation) error
}

// PipeReader is implemented by commands that accept the output of the
// previous stage as input.
type PipeReader interface {
	Command
	ReadsPipe() bool
}

// InputHandler receives raw lines while a command waits for input. It
// reports done once the command no longer needs input.
type InputHandler func(ctx context.Context, line string, out ports.OutputSink) (done bool, err error)

// Invocation is one dispatch of a command.
type Invocation struct {
	Args []string
	// Input is the captured output of the previous stage.
	Input string
	Piped bool
	Out   ports.OutputSink

	engine  *Engine
	command string
}

func (inv *Invocation) Engine() *Engine {
	return inv.engine
}

// Print writes text without a trailing newline.
func (inv *Invocation) Print(text string) {
	inv.Out.AppendText(text)
}

func (inv *Invocation) Println(text string) {
	inv.Out.AppendText(text + "\n")
}

func (inv *Invocation) Printf(format string, args ...any) {
	inv.Out.AppendText(fmt.Sprintf(format, args...))
}

// Colorf writes formatted text in color and restores the default color.
func (inv *Invocation) Colorf(color domain.Color, format string, args ...any) {
	inv.Out.SetColor(color)
	inv.Out.AppendText(fmt.Sprintf(format, args...))
	inv.Out.SetColor(domain.ColorDefault)
}

// Await keeps the command active: subsequent lines go to handler until it
// reports done. prompt is shown immediately.
func (inv *Invocation) Await(prompt string, handler InputHandler) {
	inv.engine.await(inv.command, handler)
	if prompt != "" {
		inv.Out.AppendText(prompt)
	}
}

// Registry is the name-keyed command table.
type Registry struct {
	commands map[string]Command
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds commands. Names must be unique.
func (r *Registry) Register(cmds ...Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cmds {
		if _, exists := r.commands[c.Name()]; exists {
			return fmt.Errorf("command %s already registered", c.Name())
		}
		r.commands[c.Name()] = c
	}
	return nil
}

func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

// Commands lists registered commands by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
