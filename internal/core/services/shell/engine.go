package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Environment gives the engine the filesystem commands currently work on.
type Environment interface {
	CurrentFileTree() *domain.FileTree
}

// State is whether the engine dispatches lines or feeds them to a waiting
// command.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
)

func (s State) String() string {
	if s == StateAwaitingInput {
		return "AwaitingInput"
	}
	return "Idle"
}

type pendingInput struct {
	command string
	handler InputHandler
}

// CommandFault is a panic raised by a command, with its stack.
type CommandFault struct {
	Command string
	Err     *goerrors.Error
}

func (f *CommandFault) Error() string { return f.Err.Error() }
func (f *CommandFault) Unwrap() error { return f.Err.Err }

// Engine parses input lines and dispatches them to commands. It is not safe
// for concurrent use; callers serialize Process calls.
type Engine struct {
	registry *Registry
	aliases  *AliasTable
	env      Environment
	audit    ports.AuditService

	state   State
	pending pendingInput
	lastOK  bool
}

func NewEngine(registry *Registry, aliases *AliasTable, env Environment) *Engine {
	return &Engine{
		registry: registry,
		aliases:  aliases,
		env:      env,
		lastOK:   true,
	}
}

// SetAuditService records every dispatched command through a.
func (e *Engine) SetAuditService(a ports.AuditService) {
	e.audit = a
}

func (e *Engine) Registry() *Registry      { return e.registry }
func (e *Engine) Aliases() *AliasTable     { return e.aliases }
func (e *Engine) Environment() Environment { return e.env }
func (e *Engine) State() State             { return e.state }

func (e *Engine) CurrentFileTree() *domain.FileTree {
	return e.env.CurrentFileTree()
}

func (e *Engine) CurrentPath() string {
	return e.env.CurrentFileTree().CurrentPath()
}

func (e *Engine) IsAwaitingInteractiveInput() bool {
	return e.state == StateAwaitingInput
}

// PendingCommand names the command waiting for input, if any.
func (e *Engine) PendingCommand() string {
	return e.pending.command
}

func (e *Engine) LastCommandSucceeded() bool {
	return e.lastOK
}

// Cancel abandons the pending command.
func (e *Engine) Cancel() {
	e.state, e.pending = StateIdle, pendingInput{}
}

func (e *Engine) await(command string, handler InputHandler) {
	e.state = StateAwaitingInput
	e.pending = pendingInput{command: command, handler: handler}
}

// Process handles one input line and renders everything through sink.
func (e *Engine) Process(ctx context.Context, line string, sink ports.OutputSink) {
	if e.state == StateAwaitingInput {
		e.feed(ctx, strings.TrimRight(line, "\r\n"), sink)
	} else {
		e.run(ctx, strings.TrimSpace(line), sink)
	}
	if e.state == StateIdle {
		sink.DisplayPrompt(e.CurrentPath())
	}
}

func (e *Engine) feed(ctx context.Context, line string, sink ports.OutputSink) {
	p := e.pending
	var done bool
	err := e.protect(p.command, func() error {
		var err error
		done, err = p.handler(ctx, line, sink)
		return err
	})
	var fault *CommandFault
	if done || errors.As(err, &fault) {
		e.Cancel()
	}
	e.lastOK = err == nil
	if err != nil {
		e.report(sink, err)
	}
}

func (e *Engine) run(ctx context.Context, line string, sink ports.OutputSink) {
	if line == "" {
		return
	}
	segments, err := Parse(line)
	if err != nil {
		e.lastOK = false
		e.report(sink, err)
		return
	}
	for _, seg := range segments {
		if seg.Op == OpAnd && !e.lastOK || seg.Op == OpOr && e.lastOK {
			continue
		}
		e.runSegment(ctx, seg, sink)
		if e.state == StateAwaitingInput {
			// The rest of the line is dropped; input now belongs to the command.
			return
		}
	}
}

func (e *Engine) runSegment(ctx context.Context, seg Segment, sink ports.OutputSink) {
	var (
		input string
		piped bool
	)
	for i, st := range seg.Stages {
		out := sink
		var capture *CaptureSink
		if i < len(seg.Stages)-1 {
			capture = &CaptureSink{}
			out = capture
		}
		e.lastOK = e.dispatch(ctx, st, input, piped, out, sink)
		if e.lastOK && capture != nil && e.state == StateAwaitingInput {
			// Nothing would ever show the prompt of a captured stage
			command := e.pending.command
			e.Cancel()
			e.lastOK = false
			e.report(sink, fmt.Errorf("%s %w", command, ErrInteractivePipe))
		}
		if !e.lastOK || e.state == StateAwaitingInput {
			return
		}
		if capture != nil {
			input, piped = capture.String(), true
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, st Stage, input string, piped bool, out, errOut ports.OutputSink) bool {
	name, args := e.aliases.Resolve(st.Name, st.Args)
	cmd, ok := e.registry.Get(name)
	if !ok {
		telemetry.CommandsTotal.WithLabelValues("unknown", "not_found").Inc()
		e.report(errOut, fmt.Errorf("%s: %w", name, ErrCommandNotFound))
		return false
	}
	if piped {
		if pr, ok := cmd.(PipeReader); !ok || !pr.ReadsPipe() {
			telemetry.CommandsTotal.WithLabelValues(name, "error").Inc()
			e.report(errOut, fmt.Errorf("%s %w", name, ErrPipeUnsupported))
			return false
		}
	}

	ctx, span := otel.Tracer("shell").Start(ctx, "Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("command.name", name))
	span.SetAttributes(attribute.Int("command.args", len(args)))
	span.SetAttributes(attribute.Bool("command.piped", piped))

	inv := &Invocation{Args: args, Input: input, Piped: piped, Out: out, engine: e, command: name}
	err := e.protect(name, func() error { return cmd.Execute(ctx, inv) })

	status := "ok"
	if err != nil {
		status = "error"
		var fault *CommandFault
		if errors.As(err, &fault) {
			status = "panic"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.report(errOut, err)
	}
	telemetry.CommandsTotal.WithLabelValues(name, status).Inc()
	e.recordAudit(ctx, name, args, err == nil)
	return err == nil
}

// protect runs fn and turns a panic into a CommandFault.
func (e *Engine) protect(command string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault := &CommandFault{Command: command, Err: goerrors.Wrap(r, 2)}
			slog.Error("Command panicked", "command", command, "error", fault.Error(), "stack", fault.Err.ErrorStack())
			err = fault
		}
	}()
	return fn()
}

func (e *Engine) report(out ports.OutputSink, err error) {
	if errors.Is(err, ErrSilent) {
		return
	}
	out.SetColor(domain.ColorRed)
	var fault *CommandFault
	if errors.As(err, &fault) {
		out.AppendText("Command error: " + fault.Error() + "\n")
	} else {
		out.AppendText("Error: " + err.Error() + "\n")
	}
	out.SetColor(domain.ColorDefault)
}

func (e *Engine) recordAudit(ctx context.Context, name string, args []string, ok bool) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, domain.ActionCommand, name, strings.Join(args, " "), ok); err != nil {
		slog.Warn("Failed to record command", "command", name, "error", err)
	}
}
