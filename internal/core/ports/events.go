package ports

import "github.com/lcalzada-xor/netcity/internal/core/domain"

// ConnectionObserver is notified about connection lifecycle changes.
type ConnectionObserver interface {
	OnEstablished(conn domain.NetworkConnection)
	OnLost(conn domain.NetworkConnection)
	OnFailed(conn domain.NetworkConnection, err error)
}
