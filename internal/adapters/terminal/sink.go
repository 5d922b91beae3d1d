// Package terminal is the console front end: a colored OutputSink over a
// writer and a line loop over a reader.
package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// PromptFunc renders the prompt for the current directory.
type PromptFunc func(path string) string

// Sink implements ports.OutputSink on a terminal.
type Sink struct {
	mu      sync.Mutex
	w       io.Writer
	current *color.Color
	prompt  PromptFunc
}

// NewSink writes to w. Colors follow color.NoColor, which fatih/color turns
// on when w is not a TTY.
func NewSink(w io.Writer, prompt PromptFunc) *Sink {
	if prompt == nil {
		prompt = func(path string) string { return path + "$ " }
	}
	return &Sink{w: w, prompt: prompt}
}

var palette = map[domain.Color]*color.Color{
	domain.ColorRed:    color.New(color.FgRed),
	domain.ColorGreen:  color.New(color.FgGreen),
	domain.ColorYellow: color.New(color.FgYellow),
	domain.ColorOrange: color.New(color.FgHiYellow),
	domain.ColorBlue:   color.New(color.FgBlue),
	domain.ColorCyan:   color.New(color.FgCyan),
	domain.ColorGray:   color.New(color.FgHiBlack),
}

func (s *Sink) AppendText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Fprint(s.w, text)
		return
	}
	fmt.Fprint(s.w, text)
}

// SetColor applies to every following AppendText until the next SetColor.
func (s *Sink) SetColor(c domain.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = palette[c]
}

func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, "\033[H\033[2J")
}

func (s *Sink) DisplayPrompt(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	color.New(color.FgGreen, color.Bold).Fprint(s.w, s.prompt(path))
}

var _ ports.OutputSink = (*Sink)(nil)
