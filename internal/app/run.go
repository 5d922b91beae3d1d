package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/netcity/internal/adapters/terminal"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Run starts the console, the web terminal and the connection sweep, and
// blocks until the player quits, the console input ends or ctx is done.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting NetCity components...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-app.quit:
			slog.Info("Player quit")
			cancel()
		case <-ctx.Done():
		}
	}()

	p := pool.New().WithContext(ctx).WithCancelOnError()

	if app.Config.EnableConsole {
		console := terminal.NewConsole(app.stdin, terminal.NewSink(app.stdout, app.Prompt), app)
		p.Go(supervise("console", func(ctx context.Context) error {
			defer cancel()
			return console.Run(ctx)
		}))
	}

	if app.WebServer != nil {
		p.Go(supervise("web", app.WebServer.Run))
	}

	p.Go(supervise("scheduler", func(ctx context.Context) error {
		app.scheduler.Start()
		<-ctx.Done()
		<-app.scheduler.Stop().Done()
		return nil
	}))

	slog.Info("NetCity ready", "console", app.Config.EnableConsole, "web", app.Config.WebAddr, "difficulty", app.Config.Difficulty)

	err := p.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, app.cleanup())
}

// supervise turns a panic in fn into an error so one failing component
// stops the others instead of the process.
func supervise(name string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		var pc panics.Catcher
		pc.Try(func() { err = fn(ctx) })
		if r := pc.Recovered(); r != nil {
			slog.Error("Component panicked", "component", name, "panic", r.Value, "stack", string(r.Stack))
			return fmt.Errorf("%s: %w", name, r.AsError())
		}
		if err != nil {
			slog.Error("Component failed", "component", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
