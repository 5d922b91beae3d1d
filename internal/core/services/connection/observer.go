package connection

import (
	"sync"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// Subject manages connection observers and notifies them of lifecycle events.
// Notifications are synchronous so observers see events in order.
type Subject struct {
	observers []ports.ConnectionObserver
	mu        sync.RWMutex
}

// NewSubject creates a new subject.
func NewSubject() *Subject {
	return &Subject{
		observers: make([]ports.ConnectionObserver, 0),
	}
}

// AddObserver registers a new observer.
func (s *Subject) AddObserver(observer ports.ConnectionObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *Subject) snapshot() []ports.ConnectionObserver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.ConnectionObserver, len(s.observers))
	copy(out, s.observers)
	return out
}

// NotifyEstablished tells every observer about a new connection.
func (s *Subject) NotifyEstablished(conn domain.NetworkConnection) {
	for _, obs := range s.snapshot() {
		obs.OnEstablished(conn)
	}
}

// NotifyLost tells every observer a connection went away.
func (s *Subject) NotifyLost(conn domain.NetworkConnection) {
	for _, obs := range s.snapshot() {
		obs.OnLost(conn)
	}
}

// NotifyFailed tells every observer an attempt failed.
func (s *Subject) NotifyFailed(conn domain.NetworkConnection, err error) {
	for _, obs := range s.snapshot() {
		obs.OnFailed(conn, err)
	}
}
