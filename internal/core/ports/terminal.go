package ports

import "context"

// Terminal runs player input against the game session. Implementations
// serialize calls from every attached surface.
type Terminal interface {
	// Attach greets a new surface and shows the first prompt.
	Attach(sink OutputSink)
	Process(ctx context.Context, line string, sink OutputSink)
}
