package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps text, colors and prompts in order.
type recordingSink struct {
	text    strings.Builder
	colors  []domain.Color
	prompts []string
	cleared int
}

func (s *recordingSink) AppendText(text string)    { s.text.WriteString(text) }
func (s *recordingSink) SetColor(c domain.Color)   { s.colors = append(s.colors, c) }
func (s *recordingSink) Clear()                    { s.cleared++ }
func (s *recordingSink) DisplayPrompt(path string) { s.prompts = append(s.prompts, path) }

type treeEnv struct {
	tree *domain.FileTree
}

func (e *treeEnv) CurrentFileTree() *domain.FileTree { return e.tree }

// funcCommand adapts a closure to Command.
type funcCommand struct {
	name  string
	pipe  bool
	calls int
	run   func(ctx context.Context, inv *Invocation) error
}

func (c *funcCommand) Name() string        { return c.name }
func (c *funcCommand) Description() string { return "test command " + c.name }
func (c *funcCommand) Usage() string       { return c.name }
func (c *funcCommand) ReadsPipe() bool     { return c.pipe }

func (c *funcCommand) Execute(ctx context.Context, inv *Invocation) error {
	c.calls++
	return c.run(ctx, inv)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Log(ctx context.Context, action domain.AuditAction, target, details string, success bool) error {
	args := m.Called(ctx, action, target, details, success)
	return args.Error(0)
}

func (m *MockAuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

type fixture struct {
	engine *Engine
	cmds   map[string]*funcCommand
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{cmds: make(map[string]*funcCommand)}
	add := func(c *funcCommand) { f.cmds[c.name] = c }

	add(&funcCommand{name: "echo", run: func(_ context.Context, inv *Invocation) error {
		inv.Println(strings.Join(inv.Args, " "))
		return nil
	}})
	add(&funcCommand{name: "true", run: func(context.Context, *Invocation) error { return nil }})
	add(&funcCommand{name: "false", run: func(context.Context, *Invocation) error { return ErrSilent }})
	add(&funcCommand{name: "fail", run: func(context.Context, *Invocation) error {
		return errors.New("something broke")
	}})
	add(&funcCommand{name: "upper", pipe: true, run: func(_ context.Context, inv *Invocation) error {
		inv.Print(strings.ToUpper(inv.Input))
		return nil
	}})
	add(&funcCommand{name: "lines", pipe: true, run: func(_ context.Context, inv *Invocation) error {
		inv.Printf("%d\n", strings.Count(inv.Input, "\n"))
		return nil
	}})
	add(&funcCommand{name: "boom", run: func(context.Context, *Invocation) error {
		var m map[string]int
		m["x"] = 1
		return nil
	}})
	add(&funcCommand{name: "ask", run: func(_ context.Context, inv *Invocation) error {
		tries := 0
		inv.Await("Password: ", func(_ context.Context, line string, out ports.OutputSink) (bool, error) {
			if line == "secret" {
				out.AppendText("Welcome\n")
				return true, nil
			}
			tries++
			if tries >= 2 {
				return true, errors.New("too many attempts")
			}
			out.AppendText("Try again: ")
			return false, nil
		})
		return nil
	}})

	registry := NewRegistry()
	for _, c := range f.cmds {
		require.NoError(t, registry.Register(c))
	}
	f.engine = NewEngine(registry, NewAliasTable(), &treeEnv{tree: domain.NewFileTree()})
	return f
}

func (f *fixture) run(line string) *recordingSink {
	sink := &recordingSink{}
	f.engine.Process(context.Background(), line, sink)
	return sink
}

func TestEngine_Chaining(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"true && echo yes", "yes\n", true},
		{"false && echo yes", "", false},
		{"false || echo fallback", "fallback\n", true},
		{"true || echo skipped", "", true},
		{"false and echo a or echo b", "b\n", true},
		{"echo a && echo b && echo c", "a\nb\nc\n", true},
		{"fail || echo recovered", "Error: something broke\nrecovered\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFixture(t)
			sink := f.run(tt.line)
			assert.Equal(t, tt.want, sink.text.String())
			assert.Equal(t, tt.ok, f.engine.LastCommandSucceeded())
		})
	}
}

func TestEngine_SkippedSegmentKeepsStatus(t *testing.T) {
	f := newFixture(t)

	// echo b is skipped, so the failure of false decides what runs next
	sink := f.run("false && echo b || echo c")
	assert.Equal(t, "c\n", sink.text.String())
	assert.Equal(t, 1, f.cmds["echo"].calls)
}

func TestEngine_Pipes(t *testing.T) {
	f := newFixture(t)

	sink := f.run("echo hello world | upper")
	assert.Equal(t, "HELLO WORLD\n", sink.text.String())

	sink = f.run("echo a | upper | lines")
	assert.Equal(t, "1\n", sink.text.String())
}

func TestEngine_PipeIntoNonReader(t *testing.T) {
	f := newFixture(t)

	sink := f.run("echo a | echo b")
	assert.Equal(t, "Error: echo doesn't support piped input\n", sink.text.String())
	assert.False(t, f.engine.LastCommandSucceeded())
}

func TestEngine_PipeStopsOnFailure(t *testing.T) {
	f := newFixture(t)

	sink := f.run("fail | upper")
	assert.Equal(t, "Error: something broke\n", sink.text.String())
	assert.Zero(t, f.cmds["upper"].calls)
}

func TestEngine_CommandNotFound(t *testing.T) {
	f := newFixture(t)

	sink := f.run("hack the planet")
	assert.Equal(t, "Error: hack: command not found\n", sink.text.String())
	assert.Equal(t, []domain.Color{domain.ColorRed, domain.ColorDefault}, sink.colors)
	assert.False(t, f.engine.LastCommandSucceeded())
}

func TestEngine_SyntaxError(t *testing.T) {
	f := newFixture(t)

	sink := f.run("echo a &&")
	assert.Contains(t, sink.text.String(), "syntax error")
	assert.Zero(t, f.cmds["echo"].calls)
}

func TestEngine_SilentFailure(t *testing.T) {
	f := newFixture(t)

	sink := f.run("false")
	assert.Empty(t, sink.text.String())
	assert.False(t, f.engine.LastCommandSucceeded())
}

func TestEngine_PanicRecovered(t *testing.T) {
	f := newFixture(t)

	sink := f.run("boom || echo still alive")
	out := sink.text.String()
	assert.True(t, strings.HasPrefix(out, "Command error: "), out)
	assert.Contains(t, out, "still alive")

	sink = f.run("echo next")
	assert.Equal(t, "next\n", sink.text.String())
}

func TestEngine_Aliases(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Aliases().Set("hi", "echo hello"))

	sink := f.run("hi there")
	assert.Equal(t, "hello there\n", sink.text.String())
}

func TestEngine_PromptAfterEachLine(t *testing.T) {
	f := newFixture(t)

	sink := f.run("echo a")
	assert.Equal(t, []string{"/"}, sink.prompts)

	sink = f.run("")
	assert.Equal(t, []string{"/"}, sink.prompts)
}

func TestEngine_InteractiveCommand(t *testing.T) {
	f := newFixture(t)

	sink := f.run("ask && echo after")
	assert.Equal(t, "Password: ", sink.text.String())
	assert.Empty(t, sink.prompts)
	assert.True(t, f.engine.IsAwaitingInteractiveInput())
	assert.Equal(t, "ask", f.engine.PendingCommand())
	// the rest of the line is dropped once the command waits for input
	assert.Zero(t, f.cmds["echo"].calls)

	// input goes to the handler, not the dispatcher
	sink = f.run("echo wrong")
	assert.Equal(t, "Try again: ", sink.text.String())
	assert.True(t, f.engine.IsAwaitingInteractiveInput())
	assert.Zero(t, f.cmds["echo"].calls)

	sink = f.run("secret")
	assert.Equal(t, "Welcome\n", sink.text.String())
	assert.False(t, f.engine.IsAwaitingInteractiveInput())
	assert.Equal(t, StateIdle, f.engine.State())
	assert.Len(t, sink.prompts, 1)
}

func TestEngine_InteractiveCommandInPipe(t *testing.T) {
	f := newFixture(t)

	sink := f.run("ask | lines")
	assert.Equal(t, "Error: ask waits for input and cannot feed a pipe\n", sink.text.String())
	assert.False(t, f.engine.IsAwaitingInteractiveInput())
	assert.Empty(t, f.engine.PendingCommand())
	assert.False(t, f.engine.LastCommandSucceeded())
	assert.Zero(t, f.cmds["lines"].calls)
	assert.Equal(t, []string{"/"}, sink.prompts)

	sink = f.run("ask | upper || echo recovered")
	assert.Contains(t, sink.text.String(), "recovered\n")

	// the next line is dispatched, not swallowed by a hidden handler
	sink = f.run("echo visible")
	assert.Equal(t, "visible\n", sink.text.String())
}

func TestEngine_InteractiveFailure(t *testing.T) {
	f := newFixture(t)

	f.run("ask")
	f.run("nope")
	sink := f.run("still nope")
	assert.Equal(t, "Error: too many attempts\n", sink.text.String())
	assert.False(t, f.engine.IsAwaitingInteractiveInput())
	assert.False(t, f.engine.LastCommandSucceeded())
}

func TestEngine_Cancel(t *testing.T) {
	f := newFixture(t)

	f.run("ask")
	f.engine.Cancel()
	sink := f.run("echo back")
	assert.Equal(t, "back\n", sink.text.String())
}

func TestEngine_Audit(t *testing.T) {
	f := newFixture(t)
	svc := new(MockAuditService)
	f.engine.SetAuditService(svc)

	svc.On("Log", mock.Anything, domain.ActionCommand, "echo", "a b", true).Return(nil)
	svc.On("Log", mock.Anything, domain.ActionCommand, "fail", "", false).Return(fmt.Errorf("db down"))

	f.run("echo a b")
	f.run("fail")

	svc.AssertExpectations(t)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	c := &funcCommand{name: "x", run: func(context.Context, *Invocation) error { return nil }}
	require.NoError(t, r.Register(c))
	assert.Error(t, r.Register(c))

	got, ok := r.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Name())
	assert.Len(t, r.Commands(), 1)
}

func TestCaptureSink(t *testing.T) {
	c := &CaptureSink{}
	c.SetColor(domain.ColorRed)
	c.AppendText("a")
	c.DisplayPrompt("/")
	c.AppendText("b")
	assert.Equal(t, "ab", c.String())
	c.Clear()
	assert.Empty(t, c.String())
}
