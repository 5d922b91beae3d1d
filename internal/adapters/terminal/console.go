package terminal

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// Console feeds lines from a reader to the game until EOF or cancellation.
type Console struct {
	in       io.Reader
	sink     *Sink
	terminal ports.Terminal
}

func NewConsole(in io.Reader, sink *Sink, terminal ports.Terminal) *Console {
	return &Console{in: in, sink: sink, terminal: terminal}
}

// Run blocks until the input ends or ctx is done. The reader is drained on a
// separate goroutine; a pending read is abandoned on cancellation.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
		close(lines)
	}()

	c.terminal.Attach(c.sink)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				slog.Info("Console input closed")
				return <-errs
			}
			c.terminal.Process(ctx, line, c.sink)
		}
	}
}
