package shell

import (
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// CaptureSink buffers text and drops presentation calls. It holds the output
// of every pipe stage but the last.
type CaptureSink struct {
	buf strings.Builder
}

func (c *CaptureSink) AppendText(text string) { c.buf.WriteString(text) }
func (c *CaptureSink) SetColor(domain.Color)  {}
func (c *CaptureSink) Clear()                 { c.buf.Reset() }
func (c *CaptureSink) DisplayPrompt(string)   {}
func (c *CaptureSink) String() string         { return c.buf.String() }

var _ ports.OutputSink = (*CaptureSink)(nil)
