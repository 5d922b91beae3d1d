// Package websocket serves the browser terminal. Each socket gets its own
// OutputSink; every sink call becomes one JSON frame.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/audit"
)

const writeTimeout = 5 * time.Second

// Frame types sent to the browser.
const (
	TypeText   = "text"
	TypeColor  = "color"
	TypeClear  = "clear"
	TypePrompt = "prompt"
	// TypeAwait asks for a line without a prompt, e.g. a password.
	TypeAwait = "await"
)

// Message is one frame sent to the browser.
type Message struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
}

// Input is a frame received from the browser.
type Input struct {
	Type string `json:"type"`
	Line string `json:"line"`
}

// Manager tracks the open terminal sockets.
type Manager struct {
	terminal ports.Terminal
	upgrader websocket.Upgrader
	allowed  map[string]bool

	mu      sync.Mutex
	clients map[*websocket.Conn]*Sink
}

// NewManager accepts same-origin connections plus the listed origins.
func NewManager(terminal ports.Terminal, allowedOrigins ...string) *Manager {
	m := &Manager{
		terminal: terminal,
		allowed:  make(map[string]bool),
		clients:  make(map[*websocket.Conn]*Sink),
	}
	for _, o := range allowedOrigins {
		m.allowed[o] = true
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || m.allowed[origin] {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin)
	return false
}

// Run closes every socket once ctx is done.
func (m *Manager) Run(ctx context.Context) {
	<-ctx.Done()
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.Close()
		delete(m.clients, conn)
	}
}

// Clients returns the number of open sockets.
func (m *Manager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// HandleWebSocket upgrades the request and feeds input frames to the
// terminal until the socket closes.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	sink := NewSink(conn)

	m.mu.Lock()
	m.clients[conn] = sink
	m.mu.Unlock()
	slog.Info("Terminal connected", "remote", r.RemoteAddr)

	defer func() {
		m.mu.Lock()
		delete(m.clients, conn)
		m.mu.Unlock()
		conn.Close()
		slog.Info("Terminal disconnected", "remote", r.RemoteAddr)
	}()

	// Commands from this socket are audited under its address
	ctx := audit.WithActor(r.Context(), "web:"+r.RemoteAddr)

	m.terminal.Attach(sink)
	for {
		var in Input
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Type != "input" {
			continue
		}
		sink.resetPrompt()
		m.terminal.Process(ctx, in.Line, sink)
		if !sink.prompted() {
			sink.send(Message{Type: TypeAwait})
		}
		if sink.Err() != nil {
			return
		}
	}
}

// Sink implements ports.OutputSink over one socket.
type Sink struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	err       error
	sawPrompt bool
}

func NewSink(conn *websocket.Conn) *Sink {
	return &Sink{conn: conn}
}

func (s *Sink) send(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if msg.Type == TypePrompt {
		s.sawPrompt = true
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.err = err
	}
}

func (s *Sink) resetPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sawPrompt = false
}

func (s *Sink) prompted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sawPrompt
}

// Err is the first write error; later writes are dropped.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Sink) AppendText(text string)    { s.send(Message{Type: TypeText, Payload: text}) }
func (s *Sink) SetColor(c domain.Color)   { s.send(Message{Type: TypeColor, Payload: string(c)}) }
func (s *Sink) Clear()                    { s.send(Message{Type: TypeClear}) }
func (s *Sink) DisplayPrompt(path string) { s.send(Message{Type: TypePrompt, Payload: path}) }

var _ ports.OutputSink = (*Sink)(nil)
