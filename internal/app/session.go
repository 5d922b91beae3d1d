package app

import (
	"context"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

const banner = `  _   _      _    ____ _ _
 | \ | | ___| |_ / ___(_) |_ _   _
 |  \| |/ _ \ __| |   | | __| | | |
 | |\  |  __/ |_| |___| | |_| |_| |
 |_| \_|\___|\__|\____|_|\__|\__, |
                             |___/
`

// Attach greets a new surface. A surface attaching while a command waits
// for input is told so instead of getting a prompt.
func (app *Application) Attach(sink ports.OutputSink) {
	app.mu.Lock()
	defer app.mu.Unlock()

	sink.SetColor(domain.ColorGreen)
	sink.AppendText(banner)
	sink.SetColor(domain.ColorDefault)
	sink.AppendText("Welcome to NetCity. Type 'help' for available commands.\n\n")

	if app.Engine.IsAwaitingInteractiveInput() {
		sink.SetColor(domain.ColorYellow)
		sink.AppendText("(" + app.Engine.PendingCommand() + " is waiting for input)\n")
		return
	}
	sink.DisplayPrompt(app.Engine.CurrentPath())
}

// Process runs one line of input. Calls from every surface are serialized.
func (app *Application) Process(ctx context.Context, line string, sink ports.OutputSink) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.Engine.Process(ctx, line, sink)
}

// Prompt renders user@host:path for the console. It is only called from
// inside Attach or Process, with mu held.
func (app *Application) Prompt(path string) string {
	who := "user@" + app.World.ActiveHost().Hostname
	if s, ok := app.World.ActiveSession(); ok {
		who = s.Prompt()
	}
	return who + ":" + path + "$ "
}

// serializedReports generates reports for the web while no command runs.
type serializedReports struct {
	app *Application
}

func (s serializedReports) Generate(ctx context.Context) (*domain.EngagementReport, error) {
	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	return s.app.Reports.Generate(ctx)
}

var _ ports.Terminal = (*Application)(nil)
