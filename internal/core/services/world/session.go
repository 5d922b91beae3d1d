package world

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/services/auth"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// Session is a remote shell opened with ssh.
type Session struct {
	Host      *domain.Host
	User      string
	NetworkID string
	StartedAt time.Time
}

func (s *Session) Prompt() string {
	return s.User + "@" + s.Host.Hostname
}

func (w *World) isLocalName(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || strings.EqualFold(name, w.local.Hostname)
}

// ResolveHost finds a reachable host by hostname, name or IP: the local
// machine or a host of the current network.
func (w *World) ResolveHost(name string) (*domain.Host, error) {
	if w.isLocalName(name) {
		return w.local, nil
	}
	if n := w.CurrentNetwork(); n != nil {
		if h, ok := n.SystemByHostname(name); ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not reachable from %s", domain.ErrHostNotFound, name, w.CurrentNetworkID())
}

// ActiveSession returns the innermost open session.
func (w *World) ActiveSession() (*Session, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.sessions) == 0 {
		return nil, false
	}
	return w.sessions[len(w.sessions)-1], true
}

// ActiveHost is the host commands operate on.
func (w *World) ActiveHost() *domain.Host {
	if s, ok := w.ActiveSession(); ok {
		return s.Host
	}
	return w.local
}

func (w *World) CurrentFileTree() *domain.FileTree {
	return w.ActiveHost().FS
}

// Login checks a typed password. A successful login is remembered as an
// SSH credential.
func (w *World) Login(host *domain.Host, user, password string) error {
	if err := w.auth.Login(host, user, password); err != nil {
		return err
	}
	w.player.StoreCredential(domain.SSHCredential{
		Host:     host.Hostname,
		Username: user,
		Password: password,
	}, w.CurrentNetworkID())
	return nil
}

// LoginWithStoredCredentials tries every stored SSH credential for host,
// restricted to user when it is not empty.
func (w *World) LoginWithStoredCredentials(host *domain.Host, user string) (domain.SSHCredential, bool) {
	for _, c := range w.player.SSHCredentialsFor(host.Hostname) {
		if user != "" && c.Username != user {
			continue
		}
		var err error
		if c.PrivateKey != "" {
			err = w.auth.LoginWithKey(host, c.Username, c.PrivateKey)
		} else {
			err = w.auth.Login(host, c.Username, c.Password)
		}
		if err == nil {
			return c, true
		}
		slog.Debug("Stored credential rejected", "host", host.Hostname, "user", c.Username, "error", err)
	}
	return domain.SSHCredential{}, false
}

// OpenSession starts a remote shell on host. Logging in as root owns it.
func (w *World) OpenSession(ctx context.Context, host *domain.Host, user string) *Session {
	s := &Session{Host: host, User: user, NetworkID: w.CurrentNetworkID(), StartedAt: w.now()}

	w.mu.Lock()
	w.sessions = append(w.sessions, s)
	w.mu.Unlock()

	w.conns.Touch(s.NetworkID)
	telemetry.ConnectionsTotal.WithLabelValues(string(domain.ConnectionSSH), string(domain.StatusConnected)).Inc()
	_ = host.FS.ChangeDirectory(auth.HomeDir(user))
	if user == "root" {
		w.grantRoot(ctx, host)
	}
	slog.Info("SSH session opened", "host", host.Hostname, "user", user, "network", s.NetworkID)
	return s
}

// CloseSession ends the innermost session.
func (w *World) CloseSession() (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.sessions) == 0 {
		return nil, domain.ErrNoSession
	}
	s := w.sessions[len(w.sessions)-1]
	w.sessions = w.sessions[:len(w.sessions)-1]
	return s, nil
}

// SessionDepth is the number of nested sessions.
func (w *World) SessionDepth() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sessions)
}
