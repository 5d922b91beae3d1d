package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type echoTerminal struct {
	mu       sync.Mutex
	lines    []string
	attached int
}

func (e *echoTerminal) Attach(sink ports.OutputSink) {
	e.mu.Lock()
	e.attached++
	e.mu.Unlock()
	sink.DisplayPrompt("~")
}

func (e *echoTerminal) Process(_ context.Context, line string, sink ports.OutputSink) {
	e.mu.Lock()
	e.lines = append(e.lines, line)
	e.mu.Unlock()
	sink.SetColor(domain.ColorGreen)
	sink.AppendText(strings.ToUpper(line) + "\n")
	sink.DisplayPrompt("~")
}

func TestSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, func(path string) string { return "user@local:" + path + "$ " })

	sink.AppendText("plain\n")
	sink.SetColor(domain.ColorRed)
	sink.AppendText("red\n")
	sink.DisplayPrompt("/tmp")

	assert.Equal(t, "plain\nred\nuser@local:/tmp$ ", buf.String())
}

func TestSink_DefaultPrompt(t *testing.T) {
	var buf bytes.Buffer
	NewSink(&buf, nil).DisplayPrompt("/home/user")
	assert.Equal(t, "/home/user$ ", buf.String())
}

func TestConsole_Run(t *testing.T) {
	var buf bytes.Buffer
	term := &echoTerminal{}
	console := NewConsole(strings.NewReader("ls\npwd\n"), NewSink(&buf, nil), term)

	require.NoError(t, console.Run(context.Background()))
	assert.Equal(t, []string{"ls", "pwd"}, term.lines)
	assert.Equal(t, 1, term.attached)
	assert.Contains(t, buf.String(), "LS\n~$ PWD\n")
}

func TestConsole_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader, writer := io.Pipe()
	defer writer.Close()

	done := make(chan error)
	go func() {
		done <- NewConsole(reader, NewSink(&bytes.Buffer{}, nil), &echoTerminal{}).Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console did not stop on cancel")
	}
}
