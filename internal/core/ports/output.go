package ports

import "github.com/lcalzada-xor/netcity/internal/core/domain"

// OutputSink receives everything the shell renders. Implementations decide
// how text, colors and prompts are displayed.
type OutputSink interface {
	AppendText(text string)
	SetColor(color domain.Color)
	Clear()
	DisplayPrompt(path string)
}
